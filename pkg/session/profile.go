package session

import (
	"encoding/json"
	"maps"
	"strings"
)

// Role is the user's authorization role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole parses s case-insensitively. An empty string is RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UnmarshalJSON accepts any letter case. Unknown roles are kept upper-cased
// so foreign profiles still decode; Valid reports them.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = Role(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}

// Profile is the logged-in user as stored under KeyCurrentUser.
// Fields this package does not know about are kept in Extra and written back
// unchanged.
type Profile struct {
	Name  string
	Email string
	Role  Role
	// ProfileImage is a data URI or empty.
	ProfileImage string
	Extra        map[string]json.RawMessage
}

const (
	fieldName         = "name"
	fieldEmail        = "email"
	fieldRole         = "role"
	fieldProfileImage = "profileImage"
)

func (p Profile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	out[fieldName] = p.Name
	out[fieldEmail] = p.Email
	out[fieldRole] = p.Role
	if p.ProfileImage != "" {
		out[fieldProfileImage] = p.ProfileImage
	}
	return json.Marshal(out)
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	var decoded Profile
	fields := map[string]any{
		fieldName:         &decoded.Name,
		fieldEmail:        &decoded.Email,
		fieldRole:         &decoded.Role,
		fieldProfileImage: &decoded.ProfileImage,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		if string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return err
		}
	}
	if len(raw) > 0 {
		decoded.Extra = raw
	}

	*p = decoded
	return nil
}

// Clone returns a copy that shares no maps with p.
func (p Profile) Clone() Profile {
	p.Extra = maps.Clone(p.Extra)
	return p
}

// ProfileUpdate carries the fields to merge into the stored profile.
// Nil fields are left unchanged; a pointer to "" clears ProfileImage.
type ProfileUpdate struct {
	Name         *string
	ProfileImage *string
	// Extra is merged key by key into Profile.Extra.
	Extra map[string]json.RawMessage
}

func (u ProfileUpdate) apply(p Profile) Profile {
	p = p.Clone()
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.ProfileImage != nil {
		p.ProfileImage = *u.ProfileImage
	}
	if len(u.Extra) > 0 {
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage, len(u.Extra))
		}
		maps.Copy(p.Extra, u.Extra)
	}
	return p
}

// ValidateProfileImage accepts an empty string or a data URI.
func ValidateProfileImage(image string) error {
	if image == "" {
		return nil
	}
	if len(image) < len("data:") || !strings.EqualFold(image[:len("data:")], "data:") || !strings.Contains(image, ",") {
		return ErrInvalidProfileImage
	}
	return nil
}
