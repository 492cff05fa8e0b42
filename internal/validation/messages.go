package validation

import (
	"fmt"
	"strings"

	"github.com/Veraticus/keihi/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Japanese)

// FormatAmount renders an amount with digit grouping, e.g. 12,345 or 12.5.
func FormatAmount(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

func msgDateFormat(date string) string {
	return fmt.Sprintf("日付の形式が正しくありません（YYYY-MM-DD）: %s", date)
}

func msgDateYearRange(date string, p Period, years int) string {
	return fmt.Sprintf("日付が申請月（%s）から%d年以上離れています: %s", p.Label(), years, date)
}

func msgDateMonthRange(date string, p Period, months int) string {
	return fmt.Sprintf("日付が申請月（%s）から%dヶ月以上離れています: %s", p.Label(), months, date)
}

func msgAmountDecimal(amount float64) string {
	return fmt.Sprintf("金額に小数が含まれています。外貨のまま入力されていないか確認してください: %s", FormatAmount(amount))
}

func msgAmountHigh(amount, upper float64) string {
	return fmt.Sprintf("金額が他のレシートと比べて高額です: %s（目安の上限 %s）", FormatAmount(amount), FormatAmount(upper))
}

func msgAmountLow(amount, lower float64) string {
	return fmt.Sprintf("金額が他のレシートと比べて低額です: %s（目安の下限 %s）", FormatAmount(amount), FormatAmount(lower))
}

func msgDuplicateFile(file string, others int) string {
	return fmt.Sprintf("同じファイル名のレシートが他に%d件あります: %s", others, file)
}

func msgDuplicateData(others []model.ReceiptData) string {
	files := make([]string, 0, len(others))
	for _, o := range others {
		files = append(files, o.File)
	}
	return fmt.Sprintf("日付・金額が同じで店舗名が類似したレシートがあります: %s", strings.Join(files, ", "))
}
