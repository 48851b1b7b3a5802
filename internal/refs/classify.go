package refs

import (
	"github.com/vdye/git-odb-refs/internal/odb"
)

type Kind uint8

const (
	KindReference Kind = iota
	KindBranch
	KindLightweightTag
	KindAnnotatedTag
)

func (k Kind) String() string {
	switch k {
	case KindBranch:
		return "branch"
	case KindLightweightTag:
		return "lightweight_tag"
	case KindAnnotatedTag:
		return "annotated_tag"
	default:
		return "reference"
	}
}

func KindOf(r ReferenceType) Kind {
	switch r.(type) {
	case Branch:
		return KindBranch
	case LightweightTag:
		return KindLightweightTag
	case AnnotatedTag:
		return KindAnnotatedTag
	default:
		return KindReference
	}
}

// Classify turns a raw reference into a Branch, a TagReference or a generic
// Reference, in that order of precedence. A reference that looks like a
// branch or tag but cannot be constructed as one is an error; it is never
// downgraded to a generic Reference.
func Classify(store Store, h *odb.ReferenceHandle) (ReferenceType, error) {
	var (
		ref ReferenceType
		err error
	)

	flags := h.Flags()
	switch {
	case flags.IsBranch || flags.IsRemote:
		ref, err = NewBranch(store, h)
	case flags.IsTag:
		ref, err = NewTagReference(store, h)
	default:
		ref = NewReference(h)
	}

	if err != nil {
		classifications.WithLabelValues("error").Inc()
		return nil, err
	}
	classifications.WithLabelValues(KindOf(ref).String()).Inc()
	return ref, nil
}
