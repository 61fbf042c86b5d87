package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/usecase"
)

func TestErrors_WrappedSentinelsMatch(t *testing.T) {
	sentinels := map[string]error{
		"assessment not found": usecase.ErrAssessmentNotFound,
		"not scored":           usecase.ErrNotScored,
		"unknown question":     usecase.ErrUnknownQuestion,
		"invalid input":        usecase.ErrInvalidInput,
		"conflict":             usecase.ErrRegenerationConflict,
	}

	for name, sentinel := range sentinels {
		t.Run(name, func(t *testing.T) {
			err := goerr.Wrap(sentinel, "failed to handle assessment", goerr.V(usecase.AssessmentIDKey, 7))
			gt.Error(t, err).Is(sentinel)
			gt.String(t, err.Error()).Contains(sentinel.Error())

			for other, s := range sentinels {
				if other != name {
					gt.Bool(t, errors.Is(err, s)).False()
				}
			}
		})
	}
}
