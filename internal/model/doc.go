// Package model defines domain entities and data structures for the Ember Quest API.
//
// The model package contains all struct definitions for domain objects, request/response
// types, and error definitions. Models are used across all layers of the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - User: Player account with currency balance, party/guild membership,
//     pending invitations, and patron/contributor standing
//   - Group: Party, guild, or the tavern, with member and invite ID sets
//     and an embedded chat log capped at MaxChatMessages entries
//   - ChatMessage: Single group chat entry, ordered newest-first
//   - Hero: Admin projection of a user record for the hall endpoints
//
// # JSON Serialization
//
// All models use json struct tags for API serialization:
//
//	type Group struct {
//	    ID          string `json:"id"`
//	    Name        string `json:"name"`
//	    Description string `json:"description,omitempty"`
//	}
//
// # Validation Constants
//
// The package defines validation constants:
//
//	const (
//	    MaxGroupNameLength   = 100
//	    MaxChatMessages      = 200
//	    MaxChatMessageLength = 3000
//	)
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
