package threeds

import "encoding/base64"

// Protocol message types.
const (
	MessageTypeARes = "ARes"
	MessageTypeCRes = "CRes"
	MessageTypeRReq = "RReq"
)

// DefaultMessageVersion is offered at both ends of the supported range.
const DefaultMessageVersion = "2.2.0"

// Transaction status values.
const (
	TransStatusApproved         = "Y"
	TransStatusNotAuthenticated = "N"
	TransStatusRejected         = "R"
	TransStatusPending          = "U"
	TransStatusChallenge        = "C"
)

// Transaction status reason codes.
const (
	ReasonCancelled       = "01"
	ReasonTooManyAttempts = "10"
	ReasonTimeout         = "14"
	ReasonSDKError        = "24"
)

// Device channel values carried in the AReq.
const (
	DeviceChannelApp     = "01"
	DeviceChannelBrowser = "02"
)

// BypassExpiryDate is the reserved cardExpiryDate sentinel that approves
// frictionlessly with no challenge.
const BypassExpiryDate = "3101"

// AuthenticationValue is the fixed CAVV-style token attached to every
// approved transaction.
var AuthenticationValue = base64.RawURLEncoding.EncodeToString([]byte("12345678901234567890"))
