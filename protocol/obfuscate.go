package protocol

// xorKey is the firmware's fixed obfuscation key. This is masking, not
// encryption: the same key ships in every radio.
var xorKey = [16]byte{
	0x16, 0x6C, 0x14, 0xE6, 0x2E, 0x91, 0x0D, 0x40,
	0x21, 0x35, 0xD5, 0x40, 0x13, 0x03, 0xE9, 0x80,
}

// Obfuscate XORs buf in place against the repeating key. Applying it twice
// restores the original bytes, so the same call serves encode and decode.
func Obfuscate(buf []byte) {
	for i := range buf {
		buf[i] ^= xorKey[i%len(xorKey)]
	}
}
