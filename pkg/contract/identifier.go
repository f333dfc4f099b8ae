package contract

import (
	"strconv"
	"strings"

	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

// IdentifierOptions names a resource by at most one kind. ID is a pointer so
// that zero, the "next available ID" sentinel on creates, still counts as set.
type IdentifierOptions struct {
	ID         *int
	Name       string
	UDID       string
	Serial     string
	MAC        string
	Email      string
	UUID       string
	Invitation string
}

// ID returns a pointer for IdentifierOptions.ID.
func ID(id int) *int {
	return &id
}

func ByID(id int) IdentifierOptions { return IdentifierOptions{ID: ID(id)} }
func ByName(name string) IdentifierOptions { return IdentifierOptions{Name: name} }
func ByUDID(udid string) IdentifierOptions { return IdentifierOptions{UDID: udid} }
func BySerial(serial string) IdentifierOptions { return IdentifierOptions{Serial: serial} }
func ByMAC(mac string) IdentifierOptions { return IdentifierOptions{MAC: mac} }
func ByEmail(email string) IdentifierOptions { return IdentifierOptions{Email: email} }
func ByUUID(uuid string) IdentifierOptions { return IdentifierOptions{UUID: uuid} }

func ByInvitation(invitation string) IdentifierOptions {
	return IdentifierOptions{Invitation: invitation}
}

type Identifier struct {
	Kind  Kind
	Value string
}

// Path renders "<kind>/<escaped value>".
func (i Identifier) Path() string {
	return i.Kind.Segment() + "/" + EscapeSegment(i.Value)
}

// PathValue renders the escaped value alone, for endpoints addressed by id only.
func (i Identifier) PathValue() string {
	return EscapeSegment(i.Value)
}

func (o IdentifierOptions) values() map[Kind]string {
	values := map[Kind]string{}
	if o.ID != nil {
		values[KindID] = strconv.Itoa(*o.ID)
	}
	set := func(kind Kind, value string) {
		if value != "" {
			values[kind] = value
		}
	}
	set(KindName, o.Name)
	set(KindUDID, o.UDID)
	set(KindSerial, o.Serial)
	set(KindMAC, o.MAC)
	set(KindEmail, o.Email)
	set(KindUUID, o.UUID)
	set(KindInvitation, o.Invitation)
	return values
}

// PickIdentifier returns the single identifier set in opts. allowed is the
// endpoint's whitelist.
func PickIdentifier(opts IdentifierOptions, allowed Kind) (Identifier, error) {
	values := opts.values()

	var picked []Kind
	for _, kind := range kindOrder {
		if _, ok := values[kind]; ok {
			picked = append(picked, kind)
		}
	}

	switch {
	case len(picked) == 0:
		return Identifier{}, jerrors.Newf(jerrors.CodeNoIdentification, "no identification provided, expected one of: %s", allowed)
	case len(picked) > 1:
		names := make([]string, 0, len(picked))
		for _, kind := range picked {
			names = append(names, kind.Segment())
		}
		return Identifier{}, jerrors.Newf(jerrors.CodeMultipleIdentifications, "only one identification may be provided, got: %s", strings.Join(names, ", "))
	}

	kind := picked[0]
	if !allowed.Has(kind) {
		return Identifier{}, jerrors.Newf(jerrors.CodeInvalidParameterOptions, "identification by %s is not supported here, expected one of: %s", kind.Segment(), allowed)
	}

	return Identifier{Kind: kind, Value: values[kind]}, nil
}
