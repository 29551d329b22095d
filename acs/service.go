// Package acs implements the issuer-side protocol actor: authentication,
// the iterative challenge loop on both channels, and the result query.
package acs

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/finsim/acs-emulator/acscrypto"
	"github.com/finsim/acs-emulator/envelope"
	"github.com/finsim/acs-emulator/flows"
	acserr "github.com/finsim/acs-emulator/internal/errors"
	"github.com/finsim/acs-emulator/threeds"
	"github.com/finsim/acs-emulator/transactions"
)

// Service orchestrates the protocol legs over the transaction store, the
// flow resolver and the signing/key-agreement crypto.
type Service struct {
	repo        transactions.Repo
	resolver    *flows.Resolver
	signingKeys *acscrypto.SigningKeys
	baseURL     string
	nowTime     func() time.Time
}

// ServiceOption modifies a Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes the ACS service with its required dependencies.
func NewService(repo transactions.Repo, resolver *flows.Resolver, signingKeys *acscrypto.SigningKeys, baseURL string, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] transaction repo is required")
	}
	if resolver == nil {
		return nil, errors.New("[NewService] flow resolver is required")
	}
	if signingKeys == nil {
		return nil, errors.New("[NewService] signing keys are required")
	}

	s := &Service{
		repo:        repo,
		resolver:    resolver,
		signingKeys: signingKeys,
		baseURL:     baseURL,
		nowTime:     time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Authenticate opens a transaction from an AReq and returns the ARes. On
// the app channel it runs key agreement and attaches the signed ephemeral
// key content.
func (s *Service) Authenticate(areq *threeds.AReq) (*threeds.ARes, error) {
	transID := areq.ThreeDSServerTransID
	if transID == "" {
		transID = areq.SDKTransID
	}
	if transID == "" {
		return nil, errors.Wrap(acserr.ErrMalformedInput, "AReq carries no transaction id")
	}

	messageVersion := areq.MessageVersion
	if messageVersion == "" {
		messageVersion = threeds.DefaultMessageVersion
	}

	txn := &transactions.Transaction{
		ID:               transID,
		AcsTransID:       transID,
		SDKTransID:       areq.SDKTransID,
		CardExpiryDate:   areq.CardExpiryDate,
		PurchaseAmount:   areq.PurchaseAmount,
		PurchaseCurrency: areq.PurchaseCurrency,
		NotificationURL:  areq.NotificationURL,
		MessageVersion:   messageVersion,
		TransStatus:      threeds.TransStatusPending,
		CreatedAt:        s.nowTime().Unix(),
	}

	ares := &threeds.ARes{
		MessageType:          threeds.MessageTypeARes,
		MessageVersion:       messageVersion,
		ThreeDSServerTransID: transID,
		AcsTransID:           transID,
		DSTransID:            uuid.NewString(),
		AcsChallengeMandated: "Y",
		TransStatus:          threeds.TransStatusChallenge,
	}

	if areq.DeviceChannel == threeds.DeviceChannelApp {
		signedContent, sharedKey, err := s.runKeyAgreement(areq)
		if err != nil {
			return nil, err
		}
		txn.SharedKey = sharedKey
		ares.AcsSignedContent = signedContent
	} else {
		ares.AcsURL = s.baseURL + "/creq"
	}

	if areq.CardExpiryDate == threeds.BypassExpiryDate {
		txn.TransStatus = threeds.TransStatusApproved
		ares.TransStatus = threeds.TransStatusApproved
		ares.AcsChallengeMandated = "N"
		ares.ECI = "05"
		ares.AuthenticationValue = threeds.AuthenticationValue
	}

	if err := s.repo.Upsert(txn); err != nil {
		log.Error().Err(err).Str("transID", transID).Msg("failed to persist transaction on /auth")
		return nil, acserr.Wrapf(acserr.ErrStorage, "failed to persist transaction")
	}
	return ares, nil
}

// runKeyAgreement derives the channel key from the SDK's ephemeral key and
// builds the signed content carrying the ACS ephemeral key.
func (s *Service) runKeyAgreement(areq *threeds.AReq) (string, []byte, error) {
	if areq.SDKEphemPubKey == nil || areq.SDKReferenceNumber == "" {
		return "", nil, errors.Wrap(acserr.ErrMalformedInput, "app channel AReq needs sdkEphemPubKey and sdkReferenceNumber")
	}

	sdkPublicKey, err := acscrypto.DeserializePublicKey(*areq.SDKEphemPubKey)
	if err != nil {
		return "", nil, err
	}

	acsKeyPair, err := acscrypto.GenerateECKeyPair()
	if err != nil {
		return "", nil, err
	}

	secret, err := acscrypto.ComputeECDHSecret(acsKeyPair.PrivateKey, sdkPublicKey)
	if err != nil {
		return "", nil, err
	}
	sharedKey := acscrypto.DeriveSessionKey(secret, areq.SDKReferenceNumber)

	payload := threeds.SignedKeyPayload{
		AcsEphemPubKey: acscrypto.SerializePublicKey(acsKeyPair.PublicKey),
		SDKEphemPubKey: *areq.SDKEphemPubKey,
		AcsURL:         s.baseURL + "/sdk/challenge",
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to marshal signed key payload")
	}

	signedContent, err := envelope.EncodeSignedContent(base64.RawURLEncoding.EncodeToString(payloadJSON), s.signingKeys)
	if err != nil {
		return "", nil, err
	}
	return signedContent, sharedKey, nil
}

// StartChallenge opens the browser challenge loop for a transaction: it
// resolves the first fragment without consuming an attempt or mutating the
// session.
func (s *Service) StartChallenge(acsTransID string) (*transactions.Transaction, flows.Fragment, error) {
	txn, err := s.repo.Get(acsTransID)
	if err != nil {
		return nil, 0, err
	}

	fragment := s.resolver.Resolve(txn.CardExpiryDate, "", "", false, txn.CreatedAt)
	if fragment == flows.FragmentHTML {
		fragment = flows.FragmentSingleSelect
	}
	return txn, fragment, nil
}

// SubmitChallenge advances the browser challenge loop by one round.
// Persistence is best effort: a storage failure is logged and the round's
// response still goes back to the cardholder.
func (s *Service) SubmitChallenge(acsTransID string, input ChallengeInput) (Outcome, error) {
	txn, err := s.repo.Get(acsTransID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Advance(txn, input, s.resolver)
	s.persistBestEffort(outcome)
	return outcome, nil
}

// HandleSDKChallenge processes one app-channel round: decode the inbound
// Envelope, advance the state machine, and answer with a CRes under the
// same channel key.
func (s *Service) HandleSDKChallenge(token string) (string, error) {
	var txn *transactions.Transaction
	kid, content, err := envelope.Decode(token, func(kid string) ([]byte, error) {
		loaded, err := s.repo.Get(kid)
		if err != nil {
			return nil, err
		}
		if len(loaded.SharedKey) == 0 {
			return nil, errors.Wrap(acserr.ErrMalformedInput, "transaction has no channel key")
		}
		txn = loaded
		return loaded.SharedKey, nil
	})
	if err != nil {
		return "", err
	}

	var creq threeds.CReq
	if err := json.Unmarshal(content, &creq); err != nil {
		return "", errors.Wrap(acserr.ErrMalformedInput, "CReq payload is not valid JSON")
	}

	input := ChallengeInput{
		Channel:       ChannelApp,
		DataEntry:     creq.ChallengeDataEntry,
		HTMLDataEntry: creq.ChallengeHTMLDataEntry,
		OOBContinue:   creq.OOBContinue,
		Cancel:        creq.ChallengeCancel != "",
	}
	outcome := Advance(txn, input, s.resolver)
	s.persistBestEffort(outcome)

	cres, err := s.buildCRes(outcome, &creq)
	if err != nil {
		return "", err
	}
	return envelope.Encode(txn.SharedKey, kid, cres)
}

// MarkSDKError records an SDK-reported protocol error against the
// transaction.
func (s *Service) MarkSDKError(acsTransID string) error {
	txn, err := s.repo.Get(acsTransID)
	if err != nil {
		return err
	}
	if txn.Terminal() {
		return nil
	}
	txn.TransStatus = threeds.TransStatusNotAuthenticated
	txn.TransStatusReason = threeds.ReasonSDKError
	return s.repo.Upsert(txn)
}

// Result reads the transaction outcome without mutating it. An unknown id
// answers with a synthesized negative result; upstream expects /result to
// never fail.
func (s *Service) Result(transID string) *threeds.Result {
	txn, err := s.repo.Get(transID)
	if err != nil {
		if !acserr.Is(err, acserr.ErrUnknownTransaction) {
			log.Error().Err(err).Str("transID", transID).Msg("failed to read transaction on /result")
		}
		return &threeds.Result{
			MessageType:          threeds.MessageTypeRReq,
			MessageVersion:       threeds.DefaultMessageVersion,
			ThreeDSServerTransID: transID,
			AcsTransID:           transID,
			InteractionCounter:   "00",
			MessageCategory:      "02",
			ECI:                  "05",
			TransStatus:          threeds.TransStatusNotAuthenticated,
			TransStatusReason:    threeds.ReasonTooManyAttempts,
		}
	}

	result := &threeds.Result{
		MessageType:          threeds.MessageTypeRReq,
		MessageVersion:       threeds.DefaultMessageVersion,
		ThreeDSServerTransID: txn.ID,
		AcsTransID:           txn.AcsTransID,
		DSTransID:            txn.AcsTransID,
		InteractionCounter:   "00",
		MessageCategory:      "02",
		ECI:                  "05",
		TransStatus:          txn.TransStatus,
		TransStatusReason:    txn.TransStatusReason,
		ChallengeCancel:      txn.ChallengeCancel,
		AuthenticationMethod: "02",
		AuthenticationType:   "02",
	}
	if txn.TransStatus == threeds.TransStatusApproved {
		result.AuthenticationValue = threeds.AuthenticationValue
	}
	return result
}

// SetStatus is the test-control override writing status fields directly,
// bypassing the state machine.
func (s *Service) SetStatus(req *threeds.SetStatusRequest) error {
	txn, err := s.repo.Get(req.ThreeDSServerTransID)
	if err != nil {
		return err
	}
	txn.TransStatus = req.TransStatus
	txn.TransStatusReason = req.TransStatusReason
	txn.ChallengeCancel = req.ChallengeCancel
	if err := s.repo.Upsert(txn); err != nil {
		return acserr.Wrapf(acserr.ErrStorage, "failed to persist status override")
	}
	return nil
}

func (s *Service) persistBestEffort(outcome Outcome) {
	if !outcome.Mutated {
		return
	}
	if err := s.repo.Upsert(outcome.Next); err != nil {
		log.Error().Err(err).Str("transID", outcome.Next.ID).Msg("failed to persist challenge round, continuing")
	}
}
