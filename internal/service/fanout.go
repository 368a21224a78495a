package service

import "github.com/iliyamo/token-manager/internal/model"

// defaultValue is the placeholder written by fan-out when the caller did not
// supply one.
func defaultValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// valuesForTheme returns one value per existing token for a new theme.
func valuesForTheme(themeID uint64, tokenIDs []uint64, value string) []model.TokenValue {
	values := make([]model.TokenValue, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		values = append(values, model.TokenValue{TokenID: id, ThemeID: themeID, Value: value})
	}
	return values
}

// valuesForToken returns one value per existing theme for a new token.
func valuesForToken(tokenID uint64, themeIDs []uint64, value string) []model.TokenValue {
	values := make([]model.TokenValue, 0, len(themeIDs))
	for _, id := range themeIDs {
		values = append(values, model.TokenValue{TokenID: tokenID, ThemeID: id, Value: value})
	}
	return values
}
