package channel

import "errors"

// ErrUnrecognizedMessage is returned by Decode for payloads that match no
// known message type. Check with errors.Is().
var ErrUnrecognizedMessage = errors.New("unrecognized channel message")
