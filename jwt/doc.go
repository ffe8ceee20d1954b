// Package jwt manages optional access-token issuance and verification using
// configured signing keys and strict validation semantics.
package jwt
