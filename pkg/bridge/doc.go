// Package bridge exposes a cookie codec over HTTP so that services which
// cannot link Go code can read and write Rails cookies through a sidecar.
//
// NewRouter mounts JSON endpoints on a chi router:
//
//	POST /encrypt  {"data": v}            -> {"data": {"value": s}}
//	POST /decrypt  {"value": s}           -> {"data": v}
//	POST /decrypt  {"cookie": h, "key": k} -> {"data": v}
//	POST /sign     {"data": v}            -> {"data": {"value": s}}
//	POST /verify   {"value": s}           -> {"data": v}
//	POST /verify   {"cookie": h, "key": k} -> {"data": v}
//	POST /cookies  {"cookie": h}          -> {"data": {name: value}}
//	GET  /health                          -> {"data": {"status": "ok"}}
//
// Failures use the envelope {"error": {"code": ..., "message": ...}}. A cookie
// that fails verification, decryption or deserialization answers 422 with
// code invalid_signature, cookie_not_found, decryption_failed or
// deserialize_failed; a malformed request answers 400.
//
// Optional layers: bearer token authentication (HS256 JWT signed with a
// shared secret), per-client rate limiting and CORS.
package bridge
