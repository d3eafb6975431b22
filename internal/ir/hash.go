package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the algorithm to change later.
const (
	DomainTree        = "relgraph/tree/v1"
	DomainAssociation = "relgraph/association/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null byte prevents domain/data boundary
// ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TreeHash computes a content-addressed hash of a query tree.
// Two trees hash equal iff their boundary shapes (ToObject) are canonically
// equal, so include order and conditions are significant.
func TreeHash(t *QueryTree) (string, error) {
	if t == nil {
		return "", fmt.Errorf("TreeHash: nil tree")
	}
	canonical, err := MarshalCanonical(t.ToObject())
	if err != nil {
		return "", fmt.Errorf("TreeHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTree, canonical), nil
}

// AssociationID computes the stable identity of an association declaration
// from its source entity and alias. The catalog uses it as primary key.
func AssociationID(source, alias string) string {
	obj := IRObject{
		"source": IRString(source),
		"alias":  IRString(alias),
	}
	// Strings only: canonical marshal cannot fail.
	canonical, _ := MarshalCanonical(obj)
	return hashWithDomain(DomainAssociation, canonical)
}
