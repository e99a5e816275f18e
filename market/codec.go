package market

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire form of a Call.
type Envelope struct {
	Pallet string          `json:"pallet"`
	Call   string          `json:"call"`
	Args   json.RawMessage `json:"args"`
}

type decodeFunc func(args []byte) (Call, error)

var registry = map[string]map[string]decodeFunc{
	PalletAssetManager: {
		"transfer": decodeAs[AssetTransfer],
	},
	PalletSwaps: {
		"pool_exit":             decodeAs[PoolExit],
		"pool_join":             decodeAs[PoolJoin],
		"swap_exact_amount_in":  decodeAs[SwapExactAmountIn],
		"swap_exact_amount_out": decodeAs[SwapExactAmountOut],
	},
	PalletPredictionMarkets: {
		"buy_complete_set":  decodeAs[BuyCompleteSet],
		"redeem_shares":     decodeAs[RedeemShares],
		"sell_complete_set": decodeAs[SellCompleteSet],
	},
}

func decodeAs[T Call](args []byte) (Call, error) {
	var c T
	if err := json.Unmarshal(args, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}
	return c, nil
}

// NewEnvelope validates call and wraps it for the wire.
func NewEnvelope(call Call) (*Envelope, error) {
	if call == nil {
		return nil, fmt.Errorf("%w: nil call", ErrInvalidCall)
	}
	if err := call.Validate(); err != nil {
		return nil, err
	}
	args, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("market: marshal %s.%s: %w", call.Pallet(), call.Name(), err)
	}
	return &Envelope{Pallet: call.Pallet(), Call: call.Name(), Args: args}, nil
}

// Encode serializes call as a JSON envelope.
func Encode(call Call) ([]byte, error) {
	env, err := NewEnvelope(call)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses a JSON envelope back into its Call variant.
func Decode(data []byte) (Call, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}
	return env.Decode()
}

// Decode resolves the envelope into its Call variant and validates it.
func (e *Envelope) Decode() (Call, error) {
	calls, ok := registry[e.Pallet]
	if !ok {
		return nil, fmt.Errorf("%w: pallet %q", ErrUnknownCall, e.Pallet)
	}
	fn, ok := calls[e.Call]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownCall, e.Pallet, e.Call)
	}
	call, err := fn(e.Args)
	if err != nil {
		return nil, err
	}
	if err := call.Validate(); err != nil {
		return nil, err
	}
	return call, nil
}
