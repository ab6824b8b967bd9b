package handler

import (
	"net/http"
)

// SettingsHandler はログイン画面表示設定の公開参照ハンドラー。
// ログイン画面のレンダリングに必要なため、認証不要で公開する。
type SettingsHandler struct {
	service SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetLoginOptions はログイン画面の表示設定を返す。
// 設定未保存時は両トグルtrueのデフォルトを返す。
// GET /api/settings/login-options
func (h *SettingsHandler) GetLoginOptions(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		ShowGoogleLogin: settings.ShowGoogleLogin,
		ShowAppleLogin:  settings.ShowAppleLogin,
	})
}
