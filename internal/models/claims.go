package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	//has standard jwt field issued at, expiry, subject etc
	jwt.RegisteredClaims
}
