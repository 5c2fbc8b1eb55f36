package solana

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = 64

// splBurnInstruction is the SPL Token instruction index for Burn.
const splBurnInstruction = 8

// versionPrefix marks a versioned (v0+) message.
const versionPrefix = 0x80

// ErrMalformedTransaction is returned when wire bytes cannot be parsed.
var ErrMalformedTransaction = errors.New("malformed transaction")

// ErrSignerNotFound is returned when the keypair is not a required signer.
var ErrSignerNotFound = errors.New("keypair is not a required signer")

// encodeShortVec appends a compact-u16 length.
func encodeShortVec(buf *bytes.Buffer, n int) {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

// decodeShortVec reads a compact-u16 length and returns it with the number of
// bytes consumed.
func decodeShortVec(b []byte) (int, int, error) {
	var v, shift int
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("%w: truncated length", ErrMalformedTransaction)
		}
		v |= int(b[i]&0x7f) << shift
		if b[i]&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("%w: length overflow", ErrMalformedTransaction)
}

// SignSerializedTransaction places the keypair's signature over the message
// at the keypair's signer index. It accepts legacy and v0 wire formats, with
// other signature slots left untouched.
func SignSerializedTransaction(raw []byte, kp *Keypair) ([]byte, error) {
	numSigs, countLen, err := decodeShortVec(raw)
	if err != nil {
		return nil, err
	}
	msgStart := countLen + numSigs*SignatureSize
	if msgStart >= len(raw) {
		return nil, fmt.Errorf("%w: no message", ErrMalformedTransaction)
	}
	msg := raw[msgStart:]

	// Header follows the optional version byte.
	off := 0
	if msg[0]&versionPrefix != 0 {
		off = 1
	}
	if off+3 > len(msg) {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformedTransaction)
	}
	numRequired := int(msg[off])
	off += 3

	numKeys, n, err := decodeShortVec(msg[off:])
	if err != nil {
		return nil, err
	}
	off += n
	if off+numKeys*PublicKeySize > len(msg) {
		return nil, fmt.Errorf("%w: truncated account keys", ErrMalformedTransaction)
	}

	signer := kp.PublicKey()
	idx := -1
	for i := 0; i < numRequired && i < numKeys; i++ {
		key := msg[off+i*PublicKeySize : off+(i+1)*PublicKeySize]
		if bytes.Equal(key, signer[:]) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSignerNotFound, signer)
	}
	if idx >= numSigs {
		return nil, fmt.Errorf("%w: %d signature slots for signer index %d", ErrMalformedTransaction, numSigs, idx)
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	sigOff := countLen + idx*SignatureSize
	copy(out[sigOff:sigOff+SignatureSize], kp.Sign(msg))
	return out, nil
}

// FirstSignature returns the base58 encoding of the first signature slot.
func FirstSignature(raw []byte) (string, error) {
	numSigs, n, err := decodeShortVec(raw)
	if err != nil {
		return "", err
	}
	if numSigs == 0 || n+SignatureSize > len(raw) {
		return "", fmt.Errorf("%w: no signatures", ErrMalformedTransaction)
	}
	return base58.Encode(raw[n : n+SignatureSize]), nil
}

// BurnParams describes an SPL Token burn.
type BurnParams struct {
	Owner           PublicKey
	TokenAccount    PublicKey
	Mint            PublicKey
	TokenProgram    PublicKey
	Amount          uint64
	RecentBlockhash string
}

// BuildBurnMessage encodes a legacy message with a single Burn instruction
// paid for and authorized by Owner.
func BuildBurnMessage(p BurnParams) ([]byte, error) {
	if p.Amount == 0 {
		return nil, fmt.Errorf("burn amount must be positive")
	}
	blockhash, err := base58.Decode(p.RecentBlockhash)
	if err != nil || len(blockhash) != 32 {
		return nil, fmt.Errorf("invalid blockhash %q", p.RecentBlockhash)
	}

	var buf bytes.Buffer

	// 1 required signer, 0 readonly signed, 1 readonly unsigned (program).
	buf.Write([]byte{1, 0, 1})

	keys := []PublicKey{p.Owner, p.TokenAccount, p.Mint, p.TokenProgram}
	encodeShortVec(&buf, len(keys))
	for _, k := range keys {
		buf.Write(k[:])
	}

	buf.Write(blockhash)

	data := make([]byte, 9)
	data[0] = splBurnInstruction
	binary.LittleEndian.PutUint64(data[1:], p.Amount)

	encodeShortVec(&buf, 1)
	buf.WriteByte(3) // program index
	accounts := []byte{1, 2, 0}
	encodeShortVec(&buf, len(accounts))
	buf.Write(accounts)
	encodeShortVec(&buf, len(data))
	buf.Write(data)

	return buf.Bytes(), nil
}

// NewSignedTransaction wraps a single-signer message with its signature.
func NewSignedTransaction(msg []byte, kp *Keypair) []byte {
	var buf bytes.Buffer
	encodeShortVec(&buf, 1)
	buf.Write(kp.Sign(msg))
	buf.Write(msg)
	return buf.Bytes()
}
