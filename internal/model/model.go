package model

import "fmt"

// Kind distinguishes user slugs from the per-host singleton mappings.
type Kind int

const (
	KindRegular Kind = iota
	KindRoot
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindRoot:
		return "root"
	case KindNotFound:
		return "notfound"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "regular":
		*k = KindRegular
	case "root":
		*k = KindRoot
	case "notfound":
		*k = KindNotFound
	default:
		return fmt.Errorf("unknown mapping kind %q", b)
	}
	return nil
}

// Key addresses a single mapping. Slug is only set for KindRegular.
type Key struct {
	Host string
	Kind Kind
	Slug string
}

func RegularKey(host, slug string) Key { return Key{Host: host, Kind: KindRegular, Slug: slug} }
func RootKey(host string) Key          { return Key{Host: host, Kind: KindRoot} }
func NotFoundKey(host string) Key      { return Key{Host: host, Kind: KindNotFound} }

// Redirect statuses a mapping may carry.
const (
	StatusPermanent = 301
	StatusTemporary = 302
)

type Mapping struct {
	ID        string `json:"id"`
	Host      string `json:"host"`
	Kind      Kind   `json:"kind"`
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	Status    int    `json:"status"`
	PassQuery bool   `json:"passQuery"`
	CreatedAt int64  `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
	Used      int64  `json:"used"`
}

func (m *Mapping) Key() Key {
	return Key{Host: m.Host, Kind: m.Kind, Slug: m.Slug}
}

// StatusFor maps the permanent flag of an admin request to a redirect status.
func StatusFor(permanent bool) int {
	if permanent {
		return StatusPermanent
	}
	return StatusTemporary
}
