package rules

import (
	"testing"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/pattern"
	"github.com/stretchr/testify/assert"
)

func TestDefaultCategoryRules_Classification(t *testing.T) {
	tests := []struct {
		merchant string
		want     string
	}{
		{merchant: "スターバックス 新宿店", want: "会議費"},
		{merchant: "ドトールコーヒー 原宿店", want: "会議費"},
		{merchant: "居酒屋 新宿", want: "接待交際費"},
		{merchant: "セブン-イレブン 西新宿", want: "消耗品費"},
		{merchant: "東横イン 新宿歌舞伎町", want: "旅費交通費"},
		{merchant: "民宿 かもめ", want: "旅費交通費"},
		{merchant: "京王バス 新宿", want: "旅費交通費"},
		{merchant: "JR東日本", want: "旅費交通費"},
		{merchant: "ANA", want: "旅費交通費"},
		{merchant: "ABC商店 新宿", want: ""},
		{merchant: "バスタオル専門店", want: ""},
		{merchant: "BANANA REPUBLIC", want: ""},
		{merchant: "ワイン", want: ""},
	}

	rules := DefaultCategoryRules()
	for _, tt := range tests {
		t.Run(tt.merchant, func(t *testing.T) {
			got := pattern.MatchCategory(model.StringPtr(tt.merchant), rules)
			assert.Equal(t, tt.want, model.StringValue(got))
		})
	}
}
