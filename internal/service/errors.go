package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrAccountBlocked     = errors.New("account is blocked")
)

// ===== Group Errors =====
var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrNotGroupLeader     = errors.New("only the group leader can do that")
	ErrNotGroupMember     = errors.New("user is not a member of this group")
	ErrNotEnoughGems      = errors.New("not enough gems to create a guild")
	ErrAlreadyInParty     = errors.New("user is already in a party")
	ErrAlreadyInGroup     = errors.New("user is already a member of this group")
	ErrAlreadyInvited     = errors.New("user already has an invitation to this group")
	ErrPartyInvitePending = errors.New("user already has a pending party invitation")
	ErrNotMemberOrInvited = errors.New("user is neither a member nor an invitee of this group")
	ErrTavernRestricted   = errors.New("the tavern cannot be joined or left")
	ErrCannotRemoveSelf   = errors.New("leader cannot remove themselves from the group")
)

// ===== Chat Errors =====
var (
	ErrMessageNotFound  = errors.New("chat message not found")
	ErrNotMessageAuthor = errors.New("only the author or an admin can delete this message")
)

// ===== Hall Errors =====
var (
	ErrInvalidItemPath = errors.New("item path is not grantable")
	ErrInvalidTier     = errors.New("contributor tier out of range")
)
