package acs

import (
	"github.com/finsim/acs-emulator/flows"
	"github.com/finsim/acs-emulator/threeds"
	"github.com/finsim/acs-emulator/transactions"
)

// Channel identifies which protocol surface a challenge round arrived on.
type Channel int

const (
	ChannelBrowser Channel = iota
	ChannelApp
)

// ChallengeInput is one round of player input, normalized from either
// channel's wire format.
type ChallengeInput struct {
	Channel       Channel
	DataEntry     string
	HTMLDataEntry string
	OOBContinue   bool
	Cancel        bool
	Resend        bool
	TimedOut      bool
}

// Outcome is the result of advancing the state machine by one round.
type Outcome struct {
	// Next is the transaction state after the round. Callers persist it;
	// the transition itself never touches storage.
	Next *transactions.Transaction

	// Fragment is the challenge variant to present.
	Fragment flows.Fragment

	// Counter is the ACS-to-SDK message counter echoed to the client,
	// zero-padded, taken before this round's increment.
	Counter int

	// Mutated reports whether Next differs from the input transaction.
	// Terminal transactions are frozen and advance without mutation.
	Mutated bool
}

// Advance computes one challenge round as a pure function from the current
// transaction and the player's input. Persisting Next is the caller's job,
// which keeps the read-compute-write boundary explicit.
func Advance(txn *transactions.Transaction, in ChallengeInput, resolver *flows.Resolver) Outcome {
	if txn.Terminal() {
		return Outcome{Next: txn.Clone(), Fragment: terminalFragment(txn), Counter: txn.AcsCounterAtoS}
	}

	next := txn.Clone()
	counter := next.AcsCounterAtoS
	next.AcsCounterAtoS++

	if in.Cancel {
		next.TransStatus = threeds.TransStatusNotAuthenticated
		next.TransStatusReason = threeds.ReasonCancelled
		next.ChallengeCancel = threeds.ReasonCancelled
		fragment := flows.FragmentFailed
		if in.Channel == ChannelApp {
			fragment = flows.FragmentCancelled
		}
		return Outcome{Next: next, Fragment: fragment, Counter: counter, Mutated: true}
	}

	dataEntry := in.DataEntry
	if in.OOBContinue && in.Channel == ChannelBrowser {
		dataEntry = ""
	}
	if in.TimedOut {
		dataEntry = "456"
	}
	if in.Resend {
		dataEntry = "resend"
	}

	fragment := resolver.Resolve(next.CardExpiryDate, dataEntry, in.HTMLDataEntry, in.OOBContinue, next.CreatedAt)
	if in.Channel == ChannelBrowser && fragment == flows.FragmentHTML {
		fragment = flows.FragmentSingleSelect
	}
	if in.Resend {
		fragment = flows.FragmentOTP
	}

	if fragment == flows.FragmentOTP || fragment == flows.FragmentMultiSelect || in.Resend {
		next.OTPTryCount++
	}

	switch {
	case fragment == flows.FragmentFinal:
		next.TransStatus = threeds.TransStatusApproved
		if in.TimedOut {
			next.TransStatus = threeds.TransStatusRejected
			next.TransStatusReason = threeds.ReasonTimeout
		}
	case !in.Resend && next.OTPTryCount > maxOTPTries:
		fragment = flows.FragmentFailed
		next.TransStatus = threeds.TransStatusRejected
		next.TransStatusReason = threeds.ReasonCancelled
		if in.Channel == ChannelApp {
			next.TransStatusReason = threeds.ReasonTooManyAttempts
		}
	}

	return Outcome{Next: next, Fragment: fragment, Counter: counter, Mutated: true}
}

// maxOTPTries is the number of OTP-type attempts allowed before the
// challenge is rejected.
const maxOTPTries = 3

// terminalFragment re-renders the page matching a frozen transaction's
// status.
func terminalFragment(txn *transactions.Transaction) flows.Fragment {
	if txn.TransStatus == threeds.TransStatusApproved {
		return flows.FragmentFinal
	}
	return flows.FragmentFailed
}
