// Package encryptor implements the legacy Rails MessageEncryptor format used
// by encrypted cookies before AEAD ciphers became the default.
//
// Plaintext is padded with PKCS#7, encrypted with AES in CBC mode under a
// random IV, and framed as
//
//	<base64 ciphertext>--<base64 iv>
//
// The output is not authenticated on its own. Callers sign it with the
// signer package before handing it to a client and verify the signature
// before calling Decrypt.
//
// # Error Handling
//
// Structural problems with the payload (segment count, base64, IV or block
// sizes) are reported as ErrInvalidPayload. A padding check that fails after
// decryption returns ErrDecryptionFailed.
package encryptor
