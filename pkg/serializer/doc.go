// Package serializer defines the payload codec used inside signed and
// encrypted cookies, with implementations for each Rails cookies_serializer
// setting: JSON (the default), Marshal and Hybrid.
//
// Load failures wrap ErrDeserialize and Dump failures wrap ErrSerialize, so
// callers can tell a codec problem apart from a cryptographic one.
package serializer
