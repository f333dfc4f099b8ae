package contract

import "strings"

// Kind names one way of addressing a resource. Kinds combine into a whitelist
// mask, e.g. KindID | KindName.
type Kind uint16

const (
	KindID Kind = 1 << iota
	KindName
	KindUDID
	KindSerial
	KindMAC
	KindEmail
	KindUUID
	KindInvitation
)

var kindOrder = []Kind{KindID, KindName, KindUDID, KindSerial, KindMAC, KindEmail, KindUUID, KindInvitation}

var kindSegments = map[Kind]string{
	KindID:         "id",
	KindName:       "name",
	KindUDID:       "udid",
	KindSerial:     "serialnumber",
	KindMAC:        "macaddress",
	KindEmail:      "email",
	KindUUID:       "uuid",
	KindInvitation: "invitation",
}

// Common whitelists.
const (
	KindsIDOnly   = KindID
	KindsIDName   = KindID | KindName
	KindsHardware = KindID | KindName | KindUDID | KindSerial | KindMAC
	KindsUser     = KindID | KindName | KindEmail
)

// Segment is the URL path segment for a single kind.
func (k Kind) Segment() string {
	return kindSegments[k]
}

func (k Kind) Has(other Kind) bool {
	return other != 0 && k&other == other
}

// Kinds expands a mask into its single kinds in a stable order.
func (k Kind) Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindOrder))
	for _, kind := range kindOrder {
		if k&kind != 0 {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (k Kind) String() string {
	names := make([]string, 0, len(kindOrder))
	for _, kind := range k.Kinds() {
		names = append(names, kind.Segment())
	}
	return strings.Join(names, "|")
}
