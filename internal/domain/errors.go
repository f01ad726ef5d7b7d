package domain

import "errors"

var (
	// ErrCollaboratorUnavailable means tmux (or the launcher) could not be reached.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrReportDelivery means a restart report could not be written to the report server.
	ErrReportDelivery = errors.New("report delivery failed")
	// ErrMalformedMessage means a received chunk is not a restart report.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrConnectionFault means the peer reset or dropped the connection.
	ErrConnectionFault = errors.New("connection fault")
)
