// Package threeds holds the EMV 3-D Secure wire message types exchanged
// with the 3DS Server and the SDK.
package threeds

import "github.com/finsim/acs-emulator/acscrypto"

// AReq is the authentication request opening a transaction.
type AReq struct {
	MessageType          string                   `json:"messageType,omitempty"`
	MessageVersion       string                   `json:"messageVersion,omitempty"`
	ThreeDSServerTransID string                   `json:"threeDSServerTransID,omitempty"`
	SDKTransID           string                   `json:"sdkTransID,omitempty"`
	DeviceChannel        string                   `json:"deviceChannel,omitempty"`
	CardExpiryDate       string                   `json:"cardExpiryDate,omitempty"`
	PurchaseAmount       string                   `json:"purchaseAmount,omitempty"`
	PurchaseCurrency     string                   `json:"purchaseCurrency,omitempty"`
	NotificationURL      string                   `json:"notificationURL,omitempty"`
	SDKReferenceNumber   string                   `json:"sdkReferenceNumber,omitempty"`
	SDKEphemPubKey       *acscrypto.ECPublicKeyJWK `json:"sdkEphemPubKey,omitempty"`
}

// ARes is the authentication response.
type ARes struct {
	MessageType          string `json:"messageType"`
	MessageVersion       string `json:"messageVersion"`
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	AcsTransID           string `json:"acsTransID"`
	DSTransID            string `json:"dsTransID"`
	AcsURL               string `json:"acsURL,omitempty"`
	AcsChallengeMandated string `json:"acsChallengeMandated,omitempty"`
	AcsSignedContent     string `json:"acsSignedContent,omitempty"`
	TransStatus          string `json:"transStatus,omitempty"`
	ECI                  string `json:"eci,omitempty"`
	AuthenticationValue  string `json:"authenticationValue,omitempty"`
}

// CReq is the challenge request arriving on the app channel inside an
// Envelope.
type CReq struct {
	MessageType            string `json:"messageType,omitempty"`
	MessageVersion         string `json:"messageVersion,omitempty"`
	ThreeDSServerTransID   string `json:"threeDSServerTransID,omitempty"`
	AcsTransID             string `json:"acsTransID,omitempty"`
	SDKTransID             string `json:"sdkTransID,omitempty"`
	ChallengeDataEntry     string `json:"challengeDataEntry,omitempty"`
	ChallengeHTMLDataEntry string `json:"challengeHTMLDataEntry,omitempty"`
	OOBContinue            bool   `json:"oobContinue,omitempty"`
	ChallengeCancel        string `json:"challengeCancel,omitempty"`
}

// SignedKeyPayload is the payload of the ACS signed content: both ephemeral
// keys plus the challenge URL the SDK must call.
type SignedKeyPayload struct {
	AcsEphemPubKey acscrypto.ECPublicKeyJWK `json:"acsEphemPubKey"`
	SDKEphemPubKey acscrypto.ECPublicKeyJWK `json:"sdkEphemPubKey"`
	AcsURL         string                   `json:"acsURL"`
}

// ResultRequest queries the terminal outcome of a transaction.
type ResultRequest struct {
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
}

// Result is the RReq-style outcome returned by /result.
type Result struct {
	MessageType          string `json:"messageType"`
	MessageVersion       string `json:"messageVersion"`
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	AcsTransID           string `json:"acsTransID"`
	DSTransID            string `json:"dsTransID,omitempty"`
	InteractionCounter   string `json:"interactionCounter"`
	MessageCategory      string `json:"messageCategory"`
	ECI                  string `json:"eci"`
	TransStatus          string `json:"transStatus"`
	TransStatusReason    string `json:"transStatusReason,omitempty"`
	ChallengeCancel      string `json:"challengeCancel,omitempty"`
	AuthenticationMethod string `json:"authenticationMethod,omitempty"`
	AuthenticationType   string `json:"authenticationType,omitempty"`
	AuthenticationValue  string `json:"authenticationValue,omitempty"`
}

// SetStatusRequest is the test-control write that bypasses the state
// machine.
type SetStatusRequest struct {
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	TransStatus          string `json:"transStatus"`
	TransStatusReason    string `json:"transStatusReason"`
	ChallengeCancel      string `json:"challengeCancel"`
}

// VersionResponse answers /supportedversions.
type VersionResponse struct {
	ThreeDSServerTransID    string `json:"threeDSServerTransID"`
	AcsStartProtocolVersion string `json:"acsStartProtocolVersion"`
	AcsEndProtocolVersion   string `json:"acsEndProtocolVersion"`
	ThreeDSMethodURL        string `json:"threeDSMethodURL"`
	DSStartProtocolVersion  string `json:"dsStartProtocolVersion"`
	DSEndProtocolVersion    string `json:"dsEndProtocolVersion"`
}

// MethodData is the decoded threeDSMethodData posted to /fingerprint.
type MethodData struct {
	ThreeDSServerTransID         string `json:"threeDSServerTransID"`
	ThreeDSMethodNotificationURL string `json:"threeDSMethodNotificationURL"`
}

// SessionData is the decoded threeDSSessionData blob carried through the
// browser challenge forms.
type SessionData struct {
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	AcsTransID           string `json:"acsTransID"`
}
