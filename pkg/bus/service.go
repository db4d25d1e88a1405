package bus

import (
	"context"
	"fmt"
)

// Connect opens the client selected by opts.Kind.
func Connect(ctx context.Context, opts Options) (Client, error) {
	switch opts.Kind {
	case KindMQTT, "":
		client, err := NewMQTTClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	case KindNATS:
		client, err := NewNATSClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, opts.Kind)
}
