package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvavassori/picostats/config"
	"github.com/mvavassori/picostats/utils"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the operator password for a dashboard token. Only wired
// when JWT_SECRET and DASHBOARD_PASSWORD_HASH are both configured.
func Login(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
			return
		}
		if req.Password == "" {
			utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("password is required"))
			return
		}

		err := bcrypt.CompareHashAndPassword([]byte(cfg.DashboardPasswordHash), []byte(req.Password))
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
			return
		}

		token, err := utils.CreateDashboardToken(cfg.JWTSecret)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusInternalServerError, fmt.Errorf("error creating token"))
			return
		}

		utils.WriteJSONResponse(w, http.StatusOK, loginResponse{Token: token})
	}
}
