//go:build race

package account

import "golang.org/x/crypto/bcrypt"

// race instrumented builds hash several times slower
func passwordHashCost() int { return bcrypt.DefaultCost }
