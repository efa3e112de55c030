package apperr

import "net/http"

// Code is a machine-readable failure code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidCapacity Code = "INVALID_CAPACITY"
	CodeInvalidTime     Code = "INVALID_TIME"
	CodeInvalidWinner   Code = "INVALID_WINNER"

	// Not found
	CodeNotFound Code = "NOT_FOUND"

	// Authorization
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodeUnauthorizedReporter     Code = "UNAUTHORIZED_REPORTER"
	CodeCannotApproveOwnProposal Code = "CANNOT_APPROVE_OWN_PROPOSAL"

	// State conflicts
	CodeDuplicateActiveTournament Code = "DUPLICATE_ACTIVE_TOURNAMENT"
	CodeTournamentNotOpen         Code = "TOURNAMENT_NOT_OPEN"
	CodeTournamentFull            Code = "TOURNAMENT_FULL"
	CodeDuplicateOrganizer        Code = "DUPLICATE_ORGANIZER"
	CodeTournamentNotFull         Code = "TOURNAMENT_NOT_FULL"
	CodeBracketAlreadyExists      Code = "BRACKET_ALREADY_EXISTS"
	CodeInsufficientParticipants  Code = "INSUFFICIENT_PARTICIPANTS"
	CodeParticipantLocked         Code = "PARTICIPANT_LOCKED"
	CodeMatchNotSchedulable       Code = "MATCH_NOT_SCHEDULABLE"
	CodeProposalAlreadyPending    Code = "PROPOSAL_ALREADY_PENDING"
	CodeProposalNotPending        Code = "PROPOSAL_NOT_PENDING"
	CodeMatchNotAwaitingResult    Code = "MATCH_NOT_AWAITING_RESULT"
	CodeMatchDisputed             Code = "MATCH_DISPUTED"
	CodeMatchAlreadyCompleted     Code = "MATCH_ALREADY_COMPLETED"
	CodeMatchPending              Code = "MATCH_PENDING"
)

// Kind maps a code to its category.
func (c Code) Kind() Kind {
	switch c {
	case CodeInvalidInput,
		CodeInvalidCapacity,
		CodeInvalidTime,
		CodeInvalidWinner:
		return KindValidation

	case CodeNotFound:
		return KindNotFound

	case CodeUnauthorized,
		CodeUnauthorizedReporter,
		CodeCannotApproveOwnProposal:
		return KindUnauthorized

	case CodeDuplicateActiveTournament,
		CodeTournamentNotOpen,
		CodeTournamentFull,
		CodeDuplicateOrganizer,
		CodeTournamentNotFull,
		CodeBracketAlreadyExists,
		CodeInsufficientParticipants,
		CodeParticipantLocked,
		CodeMatchNotSchedulable,
		CodeProposalAlreadyPending,
		CodeProposalNotPending,
		CodeMatchNotAwaitingResult,
		CodeMatchDisputed,
		CodeMatchAlreadyCompleted,
		CodeMatchPending:
		return KindConflict

	default:
		return KindInternal
	}
}

// HTTPStatus maps a kind to the status code used by the HTTP adapter.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is matching.
var (
	ErrInvalidInput    = New(CodeInvalidInput, "invalid input")
	ErrInvalidCapacity = New(CodeInvalidCapacity, "invalid tournament capacity")
	ErrInvalidTime     = New(CodeInvalidTime, "proposed time must be in the future")
	ErrInvalidWinner   = New(CodeInvalidWinner, "winner is not part of this match")

	ErrNotFound = New(CodeNotFound, "requested resource not found")

	ErrUnauthorized             = New(CodeUnauthorized, "operation not allowed for this principal")
	ErrUnauthorizedReporter     = New(CodeUnauthorizedReporter, "reporter is not bound to this scope")
	ErrCannotApproveOwnProposal = New(CodeCannotApproveOwnProposal, "cannot respond to own proposal")

	ErrDuplicateActiveTournament = New(CodeDuplicateActiveTournament, "an active tournament already exists for this game")
	ErrTournamentNotOpen         = New(CodeTournamentNotOpen, "tournament registration is not open")
	ErrTournamentFull            = New(CodeTournamentFull, "tournament registration is full")
	ErrDuplicateOrganizer        = New(CodeDuplicateOrganizer, "organizer already has an entry in this tournament")
	ErrTournamentNotFull         = New(CodeTournamentNotFull, "tournament is not full")
	ErrBracketAlreadyExists      = New(CodeBracketAlreadyExists, "bracket already exists for this tournament")
	ErrInsufficientParticipants  = New(CodeInsufficientParticipants, "at least two participants are required")
	ErrParticipantLocked         = New(CodeParticipantLocked, "participants are locked once the bracket exists")
	ErrMatchNotSchedulable       = New(CodeMatchNotSchedulable, "match is not open for scheduling")
	ErrProposalAlreadyPending    = New(CodeProposalAlreadyPending, "a time proposal is already pending")
	ErrProposalNotPending        = New(CodeProposalNotPending, "proposal is not pending")
	ErrMatchNotAwaitingResult    = New(CodeMatchNotAwaitingResult, "match is not awaiting a result")
	ErrMatchDisputed             = New(CodeMatchDisputed, "match result is disputed")
	ErrMatchAlreadyCompleted     = New(CodeMatchAlreadyCompleted, "match is already completed")
	ErrMatchPending              = New(CodeMatchPending, "match participants are not yet decided")
)
