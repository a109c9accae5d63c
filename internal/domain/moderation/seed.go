package moderation

// Pattern categories
const (
	CategoryDrugs               = "drugs"
	CategoryFraud               = "fraud"
	CategoryGambling            = "gambling"
	CategoryAdult               = "adult"
	CategoryWeapons             = "weapons"
	CategoryFinancialFraud      = "financial_fraud"
	CategoryCrypto              = "crypto"
	CategoryMedicine            = "medicine"
	CategoryAggressiveMarketing = "aggressive_marketing"

	CategoryLegalWork = "legal_work"
)

type seedPattern struct {
	keyword  string
	category string
	weight   int
}

// Keywords are Russian because the marketplace serves Russian-speaking users.
var defaultPatterns = []seedPattern{
	// Drug couriers ("drops") and their recruitment vocabulary
	{"закладчик", CategoryDrugs, 5},
	{"закладки", CategoryDrugs, 5},
	{"кладмен", CategoryDrugs, 5},
	{"минер", CategoryDrugs, 5},
	{"фасовщик", CategoryDrugs, 5},
	{"трафаретчик", CategoryDrugs, 5},
	{"легальная продукция", CategoryDrugs, 5},
	{"клад", CategoryDrugs, 4},
	{"развешивать по пакетикам", CategoryDrugs, 5},
	{"мастер-квест", CategoryDrugs, 4},
	{"спайс", CategoryDrugs, 5},
	{"соль", CategoryDrugs, 3},
	{"скорость", CategoryDrugs, 2},
	{"курьер", CategoryDrugs, 2},
	{"развозка", CategoryDrugs, 2},
	{"доставка посылок", CategoryDrugs, 2},
	{"доставка лёгких заказов", CategoryDrugs, 4},
	{"пешие курьеры", CategoryDrugs, 3},
	{"анонимно", CategoryDrugs, 3},
	{"конфиденциально", CategoryDrugs, 2},
	{"без опыта", CategoryDrugs, 1},
	{"быстрые деньги", CategoryDrugs, 3},
	{"наличные сразу", CategoryDrugs, 2},
	{"телеграм только", CategoryDrugs, 3},
	{"пишите в тг", CategoryDrugs, 2},
	{"фото паспорта", CategoryDrugs, 4},
	{"страховой взнос", CategoryDrugs, 4},
	{"залог", CategoryDrugs, 2},
	{"нефасованный опт", CategoryDrugs, 5},
	{"мина", CategoryDrugs, 3},

	{"лёгкий заработок", CategoryFraud, 4},
	{"высокий доход", CategoryFraud, 3},
	{"быстрый заработок", CategoryFraud, 4},
	{"300 тысяч в месяц", CategoryFraud, 5},
	{"500 тысяч в месяц", CategoryFraud, 5},
	{"900 тысяч", CategoryFraud, 5},
	{"30 тысяч в день", CategoryFraud, 5},
	{"50 тысяч в день", CategoryFraud, 5},
	{"3-4 часа в день", CategoryFraud, 2},
	{"свободный график", CategoryFraud, 1},

	{"казино", CategoryGambling, 5},
	{"ставки", CategoryGambling, 4},
	{"букмекер", CategoryGambling, 5},
	{"покер", CategoryGambling, 4},
	{"слоты", CategoryGambling, 5},
	{"рулетка", CategoryGambling, 5},
	{"выигрыш", CategoryGambling, 3},
	{"бонус за регистрацию", CategoryGambling, 4},

	{"порно", CategoryAdult, 5},
	{"эскорт", CategoryAdult, 5},
	{"интим", CategoryAdult, 5},
	{"интим услуги", CategoryAdult, 5},
	{"проститутки", CategoryAdult, 5},
	{"девушки по вызову", CategoryAdult, 5},
	{"массаж для мужчин", CategoryAdult, 4},
	{"знакомства 18+", CategoryAdult, 4},
	{"вебкам", CategoryAdult, 5},
	{"onlyfans", CategoryAdult, 4},

	{"оружие", CategoryWeapons, 5},
	{"пистолет", CategoryWeapons, 5},
	{"взрывчатка", CategoryWeapons, 5},
	{"автомат", CategoryWeapons, 5},
	{"патроны", CategoryWeapons, 5},
	{"граната", CategoryWeapons, 5},

	{"обнал", CategoryFinancialFraud, 5},
	{"обналичка", CategoryFinancialFraud, 5},
	{"отмыв денег", CategoryFinancialFraud, 5},
	{"фальшивые", CategoryFinancialFraud, 5},
	{"поддельные документы", CategoryFinancialFraud, 5},
	{"липовые", CategoryFinancialFraud, 4},
	{"чёрный нал", CategoryFinancialFraud, 5},
	{"киви-кошелёк", CategoryFinancialFraud, 2},

	{"крипта", CategoryCrypto, 2},
	{"btc", CategoryCrypto, 2},
	{"usdt", CategoryCrypto, 2},

	{"виагра", CategoryMedicine, 4},
	{"сиалис", CategoryMedicine, 4},
	{"аптека без рецепта", CategoryMedicine, 4},
	{"лекарства запрещённые", CategoryMedicine, 5},
	{"стероиды", CategoryMedicine, 4},
	{"100% результат", CategoryMedicine, 3},
	{"гарантия излечения", CategoryMedicine, 4},

	{"только сегодня", CategoryAggressiveMarketing, 2},
	{"не упусти", CategoryAggressiveMarketing, 2},
	{"последний шанс", CategoryAggressiveMarketing, 3},
	{"лучший", CategoryAggressiveMarketing, 1},
	{"самый выгодный", CategoryAggressiveMarketing, 2},
	{"топовый", CategoryAggressiveMarketing, 1},
}

var defaultWhitelist = []string{
	"грузчик", "разнорабочий", "уборка", "клининг", "ремонт", "демонтаж",
	"стройка", "переезд", "погрузка", "разгрузка", "сборка мебели",
	"покраска", "монтаж", "сантехник", "электрик", "штукатурка", "поклейка обоев",
}

// DefaultPatterns returns the initial pattern table. Each call returns a
// fresh slice.
func DefaultPatterns() []ModerationPattern {
	out := make([]ModerationPattern, 0, len(defaultPatterns))
	for _, p := range defaultPatterns {
		out = append(out, ModerationPattern{
			Keyword:    p.keyword,
			Category:   p.category,
			RiskWeight: p.weight,
			IsActive:   true,
		})
	}
	return out
}

// DefaultWhitelist returns the initial whitelist table.
func DefaultWhitelist() []WhitelistPhrase {
	out := make([]WhitelistPhrase, 0, len(defaultWhitelist))
	for _, phrase := range defaultWhitelist {
		out = append(out, WhitelistPhrase{
			Phrase:   phrase,
			Category: CategoryLegalWork,
			IsActive: true,
		})
	}
	return out
}

// DefaultSnapshot is the snapshot of both seed tables.
func DefaultSnapshot() ReferenceSnapshot {
	return ReferenceSnapshot{
		Patterns:  DefaultPatterns(),
		Whitelist: DefaultWhitelist(),
	}
}
