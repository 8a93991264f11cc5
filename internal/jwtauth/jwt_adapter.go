package jwtauth

import "doceo/pkg/platform/middleware/auth"

// ServiceAdapter narrows Service to the validator interface the auth
// middleware consumes.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

// ValidateToken checks the token and maps its claims down to the two
// fields the middleware reads: the subject and the token ID.
func (a *ServiceAdapter) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.JWTClaims{
		Subject: claims.Subject,
		JTI:     claims.ID,
	}, nil
}
