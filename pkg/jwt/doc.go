// Package jwt provides JSON Web Token utilities for the Ember Quest API.
//
// The jwt package handles token generation, validation, and claims
// extraction for authentication. Tokens are signed with RS256.
//
// # Token Generation
//
// Generate tokens for authenticated users:
//
//	service, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    PublicKeyPath:  "./keys/public.pem",
//	    Issuer:         "api.emberquest.dev",
//	    ExpirationMins: 60,
//	})
//
//	token, err := service.Sign(jwt.Claims{
//	    Subject: userID,
//	    UserID:  userID,
//	    Email:   email,
//	})
//
// # Token Validation
//
// Validate and extract claims:
//
//	claims, err := service.Validate(tokenString)
//	if err != nil {
//	    // Invalid or expired token
//	}
//	userID := claims.UserID
//
// # Claims
//
// Claims carry the registered JWT fields plus application fields for
// the user's ID, email, username, and role. Claims.IsAdmin reports
// whether the token grants administrative access.
package jwt
