package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Bool(true).U8(7).U32(1<<20).U64(1 << 40).I64(-5)
	r := NewReader(w.Bytes())

	b, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.EqualValues(t, 7, u8)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.EqualValues(t, 1<<20, u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, u64)

	i64, err := r.I64()
	require.NoError(t, err)
	assert.EqualValues(t, -5, i64)

	assert.Zero(t, r.Remaining())
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.BytesField([]byte{0xde, 0xad, 0xbe, 0xef}).String("hello, aegis")
	r := NewReader(w.Bytes())

	b, err := r.BytesField()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "hello, aegis", s)
}

func TestTruncatedInputErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.U64()
	assert.ErrorIs(t, err, ErrTruncated)
}

type pair struct {
	A uint32
	B string
}

func (p *pair) Encode(w *Writer) { w.U32(p.A).String(p.B) }
func (p *pair) Decode(r *Reader) error {
	var err error
	if p.A, err = r.U32(); err != nil {
		return err
	}
	p.B, err = r.String()
	return err
}

func TestMarshalUnmarshal(t *testing.T) {
	in := &pair{A: 42, B: "x"}
	data := Marshal(in)

	out := &pair{}
	require.NoError(t, Unmarshal(data, out))
	assert.Equal(t, in, out)
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	in := &pair{A: 1, B: "y"}
	data := append(Marshal(in), 0xff)

	out := &pair{}
	assert.Error(t, Unmarshal(data, out))
}
