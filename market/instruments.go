// market/instruments.go
package market

import (
	"slices"
	"strings"
	"unicode"
)

// Instrument describes a listed TSE symbol and the names people search it by.
type Instrument struct {
	Code        string   `json:"value"`
	Name        string   `json:"name"`
	ShortName   string   `json:"shortName,omitempty"`
	EnglishName string   `json:"englishName,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// Instruments is a hand-picked set of TSE Prime constituents.
var Instruments = []Instrument{
	{Code: "1301.T", Name: "極洋", EnglishName: "KYOKUYO", Aliases: []string{"極洋株式会社"}},
	{Code: "1605.T", Name: "INPEX", EnglishName: "INPEX", Aliases: []string{"国際石油開発帝石"}},
	{Code: "1801.T", Name: "大成建設", EnglishName: "TAISEI", Aliases: []string{"大成", "TAISEI CORPORATION"}},
	{Code: "1802.T", Name: "大林組", EnglishName: "OBAYASHI", Aliases: []string{"大林", "OBAYASHI CORPORATION"}},
	{Code: "1803.T", Name: "清水建設", EnglishName: "SHIMIZU", Aliases: []string{"清水", "SHIMIZU CORPORATION"}},
	{Code: "1925.T", Name: "大和ハウス", EnglishName: "DAIWA HOUSE", Aliases: []string{"大和ハウス工業"}},
	{Code: "2501.T", Name: "サッポロHD", EnglishName: "SAPPORO", Aliases: []string{"サッポロホールディングス"}},
	{Code: "2502.T", Name: "アサヒGHD", EnglishName: "ASAHI GROUP", Aliases: []string{"アサヒグループ", "アサヒグループホールディングス"}},
	{Code: "2503.T", Name: "キリンHD", EnglishName: "KIRIN", Aliases: []string{"キリンホールディングス"}},
	{Code: "2914.T", Name: "JT", EnglishName: "JAPAN TOBACCO", Aliases: []string{"日本たばこ産業"}},
	{Code: "3382.T", Name: "セブン&アイHD", EnglishName: "SEVEN & I", Aliases: []string{"セブンアンドアイ", "セブンイレブン"}},
	{Code: "4063.T", Name: "信越化学工業", EnglishName: "SHIN-ETSU", Aliases: []string{"信越化学"}},
	{Code: "4188.T", Name: "三菱ケミカルG", EnglishName: "MITSUBISHI CHEMICAL", Aliases: []string{"三菱ケミカル", "三菱ケミカルグループ"}},
	{Code: "4502.T", Name: "武田薬品工業", EnglishName: "TAKEDA", Aliases: []string{"タケダ", "TAKEDA PHARMACEUTICAL"}},
	{Code: "4503.T", Name: "アステラス製薬", EnglishName: "ASTELLAS", Aliases: []string{"アステラス"}},
	{Code: "4568.T", Name: "第一三共", EnglishName: "DAIICHI SANKYO", Aliases: []string{"第一三共株式会社"}},
	{Code: "4901.T", Name: "富士フイルム", EnglishName: "FUJIFILM", Aliases: []string{"富士フイルムHD"}},
	{Code: "6501.T", Name: "日立製作所", EnglishName: "HITACHI", Aliases: []string{"日立"}},
	{Code: "6503.T", Name: "三菱電機", EnglishName: "MITSUBISHI ELECTRIC"},
	{Code: "6594.T", Name: "ニデック", EnglishName: "NIDEC", Aliases: []string{"日本電産"}},
	{Code: "6702.T", Name: "富士通", EnglishName: "FUJITSU"},
	{Code: "6752.T", Name: "パナソニックHD", EnglishName: "PANASONIC", Aliases: []string{"パナソニックホールディングス"}},
	{Code: "6758.T", Name: "ソニーグループ", EnglishName: "SONY", Aliases: []string{"ソニー", "SONY GROUP"}},
	{Code: "6861.T", Name: "キーエンス", EnglishName: "KEYENCE"},
	{Code: "6954.T", Name: "ファナック", EnglishName: "FANUC"},
	{Code: "6971.T", Name: "京セラ", EnglishName: "KYOCERA"},
	{Code: "6981.T", Name: "村田製作所", EnglishName: "MURATA", Aliases: []string{"ムラタ"}},
	{Code: "7201.T", Name: "日産自動車", EnglishName: "NISSAN"},
	{Code: "7203.T", Name: "トヨタ自動車", EnglishName: "TOYOTA", Aliases: []string{"トヨタ"}},
	{Code: "7267.T", Name: "ホンダ", EnglishName: "HONDA", Aliases: []string{"本田技研工業", "HONDA MOTOR"}},
	{Code: "7270.T", Name: "SUBARU", EnglishName: "SUBARU", Aliases: []string{"スバル"}},
	{Code: "7272.T", Name: "ヤマハ発動機", EnglishName: "YAMAHA MOTOR"},
	{Code: "7733.T", Name: "オリンパス", EnglishName: "OLYMPUS"},
	{Code: "7741.T", Name: "HOYA", EnglishName: "HOYA"},
	{Code: "7751.T", Name: "キヤノン", EnglishName: "CANON", Aliases: []string{"キャノン"}},
	{Code: "7974.T", Name: "任天堂", EnglishName: "NINTENDO"},
	{Code: "8001.T", Name: "伊藤忠商事", EnglishName: "ITOCHU"},
	{Code: "8002.T", Name: "丸紅", EnglishName: "MARUBENI"},
	{Code: "8031.T", Name: "三井物産", EnglishName: "MITSUI & CO", Aliases: []string{"みつい物産"}},
	{Code: "8035.T", Name: "東京エレクトロン", EnglishName: "TOKYO ELECTRON", Aliases: []string{"東エレ"}},
	{Code: "8053.T", Name: "住友商事", EnglishName: "SUMITOMO CORPORATION"},
	{Code: "8058.T", Name: "三菱商事", EnglishName: "MITSUBISHI CORPORATION"},
	{Code: "8306.T", Name: "三菱UFJ FG", EnglishName: "MUFG", Aliases: []string{"三菱UFJフィナンシャルグループ"}},
	{Code: "8316.T", Name: "三井住友FG", EnglishName: "SMFG", Aliases: []string{"三井住友フィナンシャルグループ"}},
	{Code: "8411.T", Name: "みずほFG", EnglishName: "MIZUHO", Aliases: []string{"みずほフィナンシャルグループ"}},
	{Code: "8591.T", Name: "オリックス", EnglishName: "ORIX"},
	{Code: "8766.T", Name: "東京海上HD", EnglishName: "TOKIO MARINE", Aliases: []string{"東京海上ホールディングス"}},
	{Code: "9020.T", Name: "JR東日本", EnglishName: "JR EAST", Aliases: []string{"東日本旅客鉄道"}},
	{Code: "9022.T", Name: "JR東海", EnglishName: "JR CENTRAL", Aliases: []string{"東海旅客鉄道"}},
	{Code: "9024.T", Name: "JR西日本", EnglishName: "JR WEST", Aliases: []string{"西日本旅客鉄道"}},
	{Code: "9101.T", Name: "日本郵船", EnglishName: "NYK LINE", Aliases: []string{"郵船"}},
	{Code: "9104.T", Name: "商船三井", EnglishName: "MOL", Aliases: []string{"三井OSKライン"}},
	{Code: "9202.T", Name: "ANAHD", EnglishName: "ANA HOLDINGS", Aliases: []string{"ANA", "全日本空輸"}},
	{Code: "9432.T", Name: "NTT", EnglishName: "NIPPON TELEGRAPH AND TELEPHONE", Aliases: []string{"日本電信電話"}},
	{Code: "9433.T", Name: "KDDI", EnglishName: "KDDI", Aliases: []string{"au"}},
	{Code: "9434.T", Name: "ソフトバンク", EnglishName: "SOFTBANK", Aliases: []string{"SoftBank Corp."}},
	{Code: "9983.T", Name: "ファーストリテイリング", EnglishName: "FAST RETAILING", Aliases: []string{"ユニクロ"}},
	{Code: "9984.T", Name: "ソフトバンクグループ", EnglishName: "SOFTBANK GROUP"},
}

func (in Instrument) tokens() []string {
	out := make([]string, 0, 4+len(in.Aliases))
	for _, s := range []string{in.Code, in.Name, in.ShortName, in.EnglishName} {
		if s != "" {
			out = append(out, s)
		}
	}
	return append(out, in.Aliases...)
}

// Lookup finds the first instrument whose code or any name contains, or is
// contained in, keyword after Sanitize. It returns false for blank input.
func Lookup(keyword string) (Instrument, bool) {
	target := Sanitize(keyword)
	if target == "" {
		return Instrument{}, false
	}
	for _, in := range Instruments {
		for _, tok := range in.tokens() {
			s := Sanitize(tok)
			if s == target || strings.Contains(s, target) || strings.Contains(target, s) {
				return in, true
			}
		}
	}
	return Instrument{}, false
}

// Search returns every instrument Lookup would accept for keyword, in
// directory order. A blank keyword returns the whole directory.
func Search(keyword string) []Instrument {
	target := Sanitize(keyword)
	if target == "" {
		return slices.Clone(Instruments)
	}
	var out []Instrument
	for _, in := range Instruments {
		if slices.ContainsFunc(in.tokens(), func(tok string) bool {
			s := Sanitize(tok)
			return s == target || strings.Contains(s, target) || strings.Contains(target, s)
		}) {
			out = append(out, in)
		}
	}
	return out
}

// Sanitize folds full-width ASCII to half-width, drops whitespace and upper-cases.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range ToHalfWidth(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ToHalfWidth maps full-width letters, digits and the full stop to ASCII.
func ToHalfWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'Ａ' && r <= 'Ｚ', r >= 'ａ' && r <= 'ｚ', r >= '０' && r <= '９', r == '．':
			return r - 0xfee0
		}
		return r
	}, s)
}

// NormalizeSymbol upper-cases a symbol and appends the ".T" exchange suffix
// unless the symbol is an index (^N225) or already carries a suffix.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || strings.HasPrefix(s, "^") || strings.Contains(s, ".") {
		return s
	}
	return s + ".T"
}
