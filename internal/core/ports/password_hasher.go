package ports

// PasswordHasher transforms plaintext secrets into stored hashes and
// verifies candidates against them.
type PasswordHasher interface {
	// Hash derives a self-describing hash from the secret. Calling it
	// twice with the same secret yields different outputs.
	Hash(secret string) (string, error)

	// Verify reports whether the secret matches the stored hash. A
	// mismatch is (false, nil); the error return is reserved for hashes
	// that cannot be parsed at all.
	Verify(secret, hashed string) (bool, error)
}
