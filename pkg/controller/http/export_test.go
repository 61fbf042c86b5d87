package http

var StatusOf = statusOf
