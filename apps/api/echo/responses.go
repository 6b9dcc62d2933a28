package echoapi

import (
	"time"

	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/core/school"
)

type (
	tokenResponse struct {
		Token string `json:"token"`
	}

	sessionResponse struct {
		Token    string    `json:"token"`
		User     auth.User `json:"user"`
		Redirect string    `json:"redirect"`
		Message  string    `json:"message,omitempty"`
	}

	compareResponse struct {
		Items []school.School `json:"items"`
		Count int             `json:"count"`
		Max   int             `json:"max"`
	}

	schoolResponse struct {
		School    school.School   `json:"school"`
		Comparing bool            `json:"comparing"`
		Similar   []school.School `json:"similar"`
	}

	resetResponse struct {
		Step     auth.Step `json:"step"`
		Email    string    `json:"email,omitempty"`
		ResendIn int       `json:"resendIn"` // seconds
		Message  string    `json:"message,omitempty"`
	}

	resolveResponse struct {
		Route auth.Route `json:"route"`
		auth.Decision
	}

	dashboardResponse struct {
		User    auth.User       `json:"user"`
		Compare []school.School `json:"compare"`
	}
)

func newCompareResponse(items []school.School) compareResponse {
	return compareResponse{Items: items, Count: len(items), Max: compare.MaxItems}
}

func newResetResponse(st auth.ResetState, msg string) resetResponse {
	res := resetResponse{Step: st.Step, Email: st.Email, Message: msg}
	if st.Step == auth.StepVerifyOTP {
		resendIn := st.ResendIn()
		res.ResendIn = int(resendIn / time.Second)
		if resendIn%time.Second > 0 {
			res.ResendIn++ // round up
		}
	}
	return res
}
