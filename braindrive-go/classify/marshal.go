package classify

import (
	"encoding/json"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// envelope wraps a serialized classifier with the family tag needed to
// pick the concrete type back out at load time.
type envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type votingPayload struct {
	Base    Type              `json:"base"`
	Members []json.RawMessage `json:"members"`
}

// MarshalClassifier serializes a fitted classifier to a self-describing
// JSON blob suitable for the model store.
func MarshalClassifier(c Classifier) ([]byte, error) {
	var env envelope
	switch v := c.(type) {
	case *LDA:
		env.Type = TypeLDA
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		env.Payload = payload
	case *Forest:
		env.Type = TypeForest
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		env.Payload = payload
	case *Voting:
		env.Type = TypeVoting
		p := votingPayload{Base: v.Base}
		for _, member := range v.Members {
			blob, err := MarshalClassifier(member)
			if err != nil {
				return nil, err
			}
			p.Members = append(p.Members, blob)
		}
		payload, err := json.Marshal(p)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		env.Payload = payload
	default:
		return nil, errors.Errorf("can not marshal classifier of type %T", c)
	}
	return json.Marshal(env)
}

// UnmarshalClassifier restores a classifier persisted by
// MarshalClassifier. The result is ready for Predict.
func UnmarshalClassifier(blob []byte) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, errors.Wrapf(err, "decoding classifier envelope")
	}
	switch env.Type {
	case TypeLDA:
		var lda LDA
		if err := json.Unmarshal(env.Payload, &lda); err != nil {
			return nil, errors.Wrapf(err, "decoding lda payload")
		}
		return &lda, nil
	case TypeForest:
		var forest Forest
		if err := json.Unmarshal(env.Payload, &forest); err != nil {
			return nil, errors.Wrapf(err, "decoding forest payload")
		}
		return &forest, nil
	case TypeVoting:
		var p votingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, errors.Wrapf(err, "decoding voting payload")
		}
		voting := Voting{Base: p.Base}
		for i, blob := range p.Members {
			member, err := UnmarshalClassifier(blob)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding voting member %d", i)
			}
			voting.Members = append(voting.Members, member)
		}
		return &voting, nil
	default:
		return nil, errors.Errorf("unknown classifier type %q in envelope", env.Type)
	}
}
