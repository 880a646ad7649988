package ledger

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// ArgAddress extracts positional argument i as an address.
func ArgAddress(args []Val, i int) (Address, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrInvalidArgs, i)
	}
	a, ok := args[i].AsAddress()
	if !ok {
		return "", fmt.Errorf("%w: argument %d is %s, want address", ErrInvalidArgs, i, args[i].Kind())
	}
	return a, nil
}

// ArgI128 extracts positional argument i as an i128.
func ArgI128(args []Val, i int) (sdkmath.Int, error) {
	if i >= len(args) {
		return sdkmath.Int{}, fmt.Errorf("%w: missing argument %d", ErrInvalidArgs, i)
	}
	v, ok := args[i].AsI128()
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: argument %d is %s, want i128", ErrInvalidArgs, i, args[i].Kind())
	}
	return v, nil
}

// ArgU32 extracts positional argument i as a u32.
func ArgU32(args []Val, i int) (uint32, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing argument %d", ErrInvalidArgs, i)
	}
	v, ok := args[i].AsU32()
	if !ok {
		return 0, fmt.Errorf("%w: argument %d is %s, want u32", ErrInvalidArgs, i, args[i].Kind())
	}
	return v, nil
}

// ArgVec extracts positional argument i as a vector.
func ArgVec(args []Val, i int) ([]Val, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%w: missing argument %d", ErrInvalidArgs, i)
	}
	v, ok := args[i].AsVec()
	if !ok {
		return nil, fmt.Errorf("%w: argument %d is %s, want vec", ErrInvalidArgs, i, args[i].Kind())
	}
	return v, nil
}
