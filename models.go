package aclkit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// RoleID is an opaque integer identifier for a role. Uniqueness is the
// caller's responsibility; RoleFromName derives IDs from a collision-resistant
// hash of a human-readable name.
type RoleID uint64

// DefaultAdminRole is the reserved root role (id 0). It is its own admin and
// is the implicit admin of every role that has not been re-pointed with
// SetRoleAdmin. Bootstrap grants it to the deploying principal.
const DefaultAdminRole RoleID = 0

// RoleFromName derives a RoleID from a human-readable role name using a
// truncated SHA-256. The same name always yields the same ID.
//
// Example:
//
//	minter := aclkit.RoleFromName("minter")
func RoleFromName(name string) RoleID {
	sum := sha256.Sum256([]byte(name))
	return RoleID(binary.BigEndian.Uint64(sum[:8]))
}

// PrincipalSize is the width of a Principal in bytes.
const PrincipalSize = 32

// Principal is a canonical fixed-width identifier for an account or caller,
// derived once from whatever richer address representation the host provides.
// Only equality matters. The zero Principal is reserved to mean "no caller".
type Principal [PrincipalSize]byte

// PrincipalFromBytes builds a Principal from a raw identifier. Inputs shorter
// than PrincipalSize are zero-padded; longer inputs are truncated.
func PrincipalFromBytes(b []byte) Principal {
	var p Principal
	copy(p[:], b)
	return p
}

// PrincipalFromString derives a Principal from an arbitrary host address
// representation by hashing it. The same input always yields the same
// Principal.
//
// Example:
//
//	alice := aclkit.PrincipalFromString("alice@example.com")
func PrincipalFromString(s string) Principal {
	return Principal(sha256.Sum256([]byte(s)))
}

// PrincipalFromHex parses the hex form produced by Principal.String.
func PrincipalFromHex(s string) (Principal, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Principal{}, fmt.Errorf("aclkit: invalid principal %q: %w", s, err)
	}
	if len(b) != PrincipalSize {
		return Principal{}, fmt.Errorf("aclkit: invalid principal %q: want %d bytes, got %d", s, PrincipalSize, len(b))
	}
	return PrincipalFromBytes(b), nil
}

// String returns the hex representation of the principal.
func (p Principal) String() string {
	return hex.EncodeToString(p[:])
}

// IsZero reports whether p is the zero principal.
func (p Principal) IsZero() bool {
	return p == Principal{}
}

// RoleData is a point-in-time snapshot of one role's state: its current
// membership and the role that governs changes to it.
type RoleData struct {
	Role      RoleID
	AdminRole RoleID
	Members   []Principal
}

// HasMember reports whether principal appears in the snapshot's member set.
func (d RoleData) HasMember(principal Principal) bool {
	for _, m := range d.Members {
		if m == principal {
			return true
		}
	}
	return false
}

// RoleMemberRow persists one role membership. Roles are stored as BIGINT
// (two's-complement of the RoleID), principals as hex text.
type RoleMemberRow struct {
	bun.BaseModel `bun:"table:acl_role_members,alias:arm"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Role      int64     `bun:"role,notnull"`
	Principal string    `bun:"principal,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoleAdminRow persists one role's admin assignment. A role with no row uses
// DefaultAdminRole, mirroring the in-memory registry's defaulting.
type RoleAdminRow struct {
	bun.BaseModel `bun:"table:acl_role_admins,alias:ara"`

	Role      int64     `bun:"role,pk"`
	AdminRole int64     `bun:"admin_role,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AuditRow persists one audit log entry.
type AuditRow struct {
	bun.BaseModel `bun:"table:acl_audit_log,alias:aal"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	Actor string `bun:"actor,notnull"`

	// What action was performed
	Action string `bun:"action,notnull"`

	// Target of the action
	Role      int64  `bun:"role,notnull"`
	Target    string `bun:"target"`
	AdminRole int64  `bun:"admin_role"`
	PrevAdmin int64  `bun:"prev_admin"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`
}

func roleToDB(role RoleID) int64 {
	return int64(role)
}

func roleFromDB(v int64) RoleID {
	return RoleID(uint64(v))
}
