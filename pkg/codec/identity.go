package codec

type identity struct{}

// Identity passes payloads through untouched.
func Identity() Codec {
	return identity{}
}

func (identity) Name() string {
	return "identity"
}

func (identity) Pack(payload any) (any, error) {
	return payload, nil
}

func (identity) Unpack(packed any) (any, error) {
	return packed, nil
}
