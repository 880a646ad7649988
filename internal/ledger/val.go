package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Address identifies an account or a contract on the ledger.
type Address string

// String returns the address in its textual form.
func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool { return a == "" }

// Kind enumerates the value shapes a contract can exchange.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindU32
	KindI128
	KindAddress
	KindString
	KindVec
)

var kindNames = map[Kind]string{
	KindVoid:    "void",
	KindBool:    "bool",
	KindU32:     "u32",
	KindI128:    "i128",
	KindAddress: "address",
	KindString:  "string",
	KindVec:     "vec",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var (
	ErrI128Overflow = errors.New("value exceeds the signed 128-bit range")
	ErrInvalidVal   = errors.New("value encoding is invalid")

	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Val is an immutable, dynamically typed value passed across contract boundaries.
// The zero Val is void.
type Val struct {
	kind Kind
	b    bool
	u32  uint32
	i128 sdkmath.Int
	addr Address
	str  string
	vec  []Val
}

func Void() Val { return Val{kind: KindVoid} }

func Bool(b bool) Val { return Val{kind: KindBool, b: b} }

func U32(v uint32) Val { return Val{kind: KindU32, u32: v} }

// I128 wraps an integer amount. Nil integers are treated as zero; callers that
// may exceed 128 bits should use CheckedI128.
func I128(v sdkmath.Int) Val {
	if v.IsNil() {
		v = sdkmath.ZeroInt()
	}
	return Val{kind: KindI128, i128: v}
}

// I128FromInt64 is a convenience constructor for small literals.
func I128FromInt64(v int64) Val { return I128(sdkmath.NewInt(v)) }

// CheckedI128 wraps v after verifying it fits in a signed 128-bit integer.
func CheckedI128(v sdkmath.Int) (Val, error) {
	if v.IsNil() {
		return I128(sdkmath.ZeroInt()), nil
	}
	if !FitsI128(v) {
		return Val{}, fmt.Errorf("%w: %s", ErrI128Overflow, v.String())
	}
	return I128(v), nil
}

// FitsI128 reports whether v is inside the signed 128-bit range.
func FitsI128(v sdkmath.Int) bool {
	bi := v.BigInt()
	return bi.Cmp(maxI128) <= 0 && bi.Cmp(minI128) >= 0
}

func AddressVal(a Address) Val { return Val{kind: KindAddress, addr: a} }

func String(s string) Val { return Val{kind: KindString, str: s} }

// Vec builds a vector value. The element slice is copied.
func Vec(elems ...Val) Val {
	cp := make([]Val, len(elems))
	copy(cp, elems)
	return Val{kind: KindVec, vec: cp}
}

func (v Val) Kind() Kind { return v.kind }

func (v Val) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Val) AsU32() (uint32, bool) { return v.u32, v.kind == KindU32 }

func (v Val) AsI128() (sdkmath.Int, bool) {
	if v.kind != KindI128 {
		return sdkmath.Int{}, false
	}
	return v.i128, true
}

func (v Val) AsAddress() (Address, bool) { return v.addr, v.kind == KindAddress }

func (v Val) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsVec returns a copy of the vector elements.
func (v Val) AsVec() ([]Val, bool) {
	if v.kind != KindVec {
		return nil, false
	}
	cp := make([]Val, len(v.vec))
	copy(cp, v.vec)
	return cp, true
}

// Len returns the number of elements of a vector, or zero for scalar values.
func (v Val) Len() int { return len(v.vec) }

// Equal performs a deep, kind-sensitive comparison.
func (v Val) Equal(o Val) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindVoid:
		return true
	case KindBool:
		return v.b == o.b
	case KindU32:
		return v.u32 == o.u32
	case KindI128:
		return v.i128.Equal(o.i128)
	case KindAddress:
		return v.addr == o.addr
	case KindString:
		return v.str == o.str
	case KindVec:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if !v.vec[i].Equal(o.vec[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// EqualArgs compares two argument lists element by element.
func EqualArgs(a, b []Val) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (v Val) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindU32:
		return fmt.Sprintf("%du32", v.u32)
	case KindI128:
		return v.i128.String()
	case KindAddress:
		return string(v.addr)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindVec:
		out := "["
		for i, e := range v.vec {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	}
	return "void"
}

type jsonVal struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}. i128 values are
// encoded as decimal strings to keep full precision.
func (v Val) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch v.kind {
	case KindVoid:
		return json.Marshal(jsonVal{Type: KindVoid.String()})
	case KindBool:
		raw, err = json.Marshal(v.b)
	case KindU32:
		raw, err = json.Marshal(v.u32)
	case KindI128:
		raw, err = json.Marshal(v.i128.String())
	case KindAddress:
		raw, err = json.Marshal(string(v.addr))
	case KindString:
		raw, err = json.Marshal(v.str)
	case KindVec:
		raw, err = json.Marshal(v.vec)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidVal, v.kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonVal{Type: v.kind.String(), Value: raw})
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (v *Val) UnmarshalJSON(data []byte) error {
	var jv jsonVal
	if err := json.Unmarshal(data, &jv); err != nil {
		return errors.Join(ErrInvalidVal, err)
	}
	switch jv.Type {
	case "void":
		*v = Void()
	case "bool":
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return errors.Join(ErrInvalidVal, err)
		}
		*v = Bool(b)
	case "u32":
		var u uint32
		if err := json.Unmarshal(jv.Value, &u); err != nil {
			return errors.Join(ErrInvalidVal, err)
		}
		*v = U32(u)
	case "i128":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return errors.Join(ErrInvalidVal, err)
		}
		i, ok := sdkmath.NewIntFromString(s)
		if !ok {
			return fmt.Errorf("%w: bad i128 %q", ErrInvalidVal, s)
		}
		checked, err := CheckedI128(i)
		if err != nil {
			return err
		}
		*v = checked
	case "address":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return errors.Join(ErrInvalidVal, err)
		}
		*v = AddressVal(Address(s))
	case "string":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return errors.Join(ErrInvalidVal, err)
		}
		*v = String(s)
	case "vec":
		var elems []Val
		if err := json.Unmarshal(jv.Value, &elems); err != nil {
			return errors.Join(ErrInvalidVal, err)
		}
		*v = Vec(elems...)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidVal, jv.Type)
	}
	return nil
}
