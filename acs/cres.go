package acs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/finsim/acs-emulator/flows"
	"github.com/finsim/acs-emulator/fragments"
	"github.com/finsim/acs-emulator/threeds"
)

// buildCRes fills the fragment's CRes skeleton with this round's
// transaction fields and advisory texts.
func (s *Service) buildCRes(outcome Outcome, creq *threeds.CReq) ([]byte, error) {
	cres, err := fragments.JSON(outcome.Fragment)
	if err != nil {
		return nil, err
	}

	cres["threeDSServerTransID"] = creq.ThreeDSServerTransID
	cres["acsTransID"] = creq.AcsTransID
	cres["sdkTransID"] = creq.SDKTransID
	// Counters wrap at three digits on the wire.
	cres["acsCounterAtoS"] = fmt.Sprintf("%03d", outcome.Counter%1000)

	messageVersion := creq.MessageVersion
	if messageVersion == "" {
		messageVersion = threeds.DefaultMessageVersion
	}
	cres["messageVersion"] = messageVersion

	amount := fragments.FormatAmount(outcome.Next.PurchaseAmount, outcome.Next.PurchaseCurrency)
	if text, ok := cres["challengeInfoText"].(string); ok && strings.Contains(text, "%s") {
		cres["challengeInfoText"] = fmt.Sprintf(text, amount)
	}
	if html, ok := cres["acsHTML"].(string); ok {
		if strings.Contains(html, "%s") {
			html = fmt.Sprintf(html, amount)
		}
		cres["acsHTML"] = base64.RawURLEncoding.EncodeToString([]byte(html))
	}

	wrongOTP := outcome.Fragment == flows.FragmentOTP &&
		creq.ChallengeDataEntry != "" && creq.ChallengeDataEntry != "456"
	switch {
	case wrongOTP:
		if text, ok := cres["challengeInfoText"].(string); ok {
			cres["challengeInfoText"] = text + "\n You entered the wrong code, please try again or press Resend Code."
		}
		cres["challengeInfoTextIndicator"] = "Y"
	case outcome.Fragment == flows.FragmentMultiSelect && outcome.Next.OTPTryCount > 0:
		if text, ok := cres["challengeInfoText"].(string); ok {
			cres["challengeInfoText"] = text + "\n You have selected an incorrect option, please try again."
		}
		cres["challengeInfoTextIndicator"] = "Y"
	}

	data, err := json.Marshal(cres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal CRes")
	}
	return data, nil
}
