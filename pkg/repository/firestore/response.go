package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type responseDocument struct {
	AssessmentID int64        `firestore:"assessment_id"`
	QuestionID   string       `firestore:"question_id"`
	Answer       model.Answer `firestore:"answer"`
	Notes        string       `firestore:"notes"`
	UpdatedAt    time.Time    `firestore:"updated_at"`
}

type responseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newResponseRepository(client *firestore.Client) *responseRepository {
	return &responseRepository{
		client:           client,
		collectionPrefix: "",
	}
}

// responsesCollection is a subcollection of the assessment document, keyed by question ID
func (r *responseRepository) responsesCollection(assessmentID types.AssessmentID) *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "assessments")).
		Doc(fmt.Sprintf("%d", assessmentID)).
		Collection("responses")
}

func (r *responseRepository) Put(ctx context.Context, assessmentID types.AssessmentID, responses []*model.Response) error {
	if len(responses) == 0 {
		return nil
	}

	collection := r.responsesCollection(assessmentID)
	bulkWriter := r.client.BulkWriter(ctx)

	now := time.Now().UTC()
	for _, resp := range responses {
		doc := &responseDocument{
			AssessmentID: int64(assessmentID),
			QuestionID:   string(resp.QuestionID),
			Answer:       resp.Answer,
			Notes:        resp.Notes,
			UpdatedAt:    now,
		}
		if _, err := bulkWriter.Set(collection.Doc(string(resp.QuestionID)), doc); err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to put response",
				goerr.V("assessment_id", assessmentID), goerr.V("question_id", resp.QuestionID))
		}
	}

	bulkWriter.End()
	return nil
}

func (r *responseRepository) List(ctx context.Context, assessmentID types.AssessmentID) ([]*model.Response, error) {
	iter := r.responsesCollection(assessmentID).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var responses []*model.Response
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate responses", goerr.V("assessment_id", assessmentID))
		}

		var respDoc responseDocument
		if err := doc.DataTo(&respDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal response", goerr.V("assessment_id", assessmentID))
		}

		responses = append(responses, &model.Response{
			AssessmentID: types.AssessmentID(respDoc.AssessmentID),
			QuestionID:   types.QuestionID(respDoc.QuestionID),
			Answer:       respDoc.Answer,
			Notes:        respDoc.Notes,
			UpdatedAt:    respDoc.UpdatedAt,
		})
	}

	return responses, nil
}

func (r *responseRepository) DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error {
	iter := r.responsesCollection(assessmentID).Documents(ctx)
	defer iter.Stop()

	bulkWriter := r.client.BulkWriter(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to iterate responses for deletion", goerr.V("assessment_id", assessmentID))
		}

		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to delete response", goerr.V("assessment_id", assessmentID))
		}
	}

	bulkWriter.End()

	return nil
}
