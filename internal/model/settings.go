// Package model はドメインモデルを定義する。
package model

// AppSettings はログイン画面の表示設定を保持するシングルトン。
// 設定レコードが存在しない場合は両トグルともtrueとして扱う。
type AppSettings struct {
	ShowGoogleLogin bool
	ShowAppleLogin  bool
}

// DefaultAppSettings は設定未保存時のデフォルト値を返す。
func DefaultAppSettings() AppSettings {
	return AppSettings{
		ShowGoogleLogin: true,
		ShowAppleLogin:  true,
	}
}

// AppSettingsPatch はAppSettingsの部分更新を表す。
// nilフィールドは変更しない。
type AppSettingsPatch struct {
	ShowGoogleLogin *bool
	ShowAppleLogin  *bool
}
