package electricproviders

import (
	"time"

	"github.com/bher20/denkiyoho/pkg/demand"
)

func init() {
	for _, u := range builtin {
		Register(u)
	}
}

// utility is a publisher whose layout is fixed apart from an optional
// {date} token in the source URL.
type utility struct {
	name   string
	region string
	format demand.Format
}

func (u utility) Key() string    { return u.format.Key }
func (u utility) Name() string   { return u.name }
func (u utility) Region() string { return u.region }

func (u utility) Format(now time.Time) demand.Format {
	f := u.format
	f.SourceURL = f.ResolveURL(now)
	return f
}

// Template returns the layout with any {date} token left in place.
func (u utility) Template() demand.Format { return u.format }

// Every current publisher puts peak supply on line 2 and peak demand on
// line 5, and marks the fourth hourly column as a forecast.
func standard(key, url string, hourly, fiveMin int) demand.Format {
	return demand.Format{
		Key:                    key,
		SourceURL:              url,
		Encoding:               demand.DefaultEncoding,
		PeakDemandLine:         5,
		PeakSupplyLine:         2,
		HourlyDemandStartLine:  hourly,
		FiveMinDemandStartLine: fiveMin,
		NewFormatDiffField:     true,
	}
}

var builtin = []utility{
	{
		name:   "北海道電力",
		region: "北海道",
		format: func() demand.Format {
			f := standard("hokkaido", "http://denkiyoho.hepco.co.jp/data/juyo_hokkaidou.csv", 11, 44)
			f.FractionalAmounts = true
			return f
		}(),
	},
	{
		name:   "東北電力",
		region: "東北",
		format: standard("tohoku", "http://setsuden.tohoku-epco.co.jp/common/demand/juyo_tohoku.csv", 8, 44),
	},
	{
		name:   "東京電力",
		region: "関東",
		format: standard("tokyo", "http://www.tepco.co.jp/forecast/html/images/juyo-j.csv", 8, 44),
	},
	{
		name:   "北陸電力",
		region: "北陸",
		format: standard("hokuriku", "http://www.rikuden.co.jp/denki-yoho/csv/juyo-rikuden.csv", 8, 44),
	},
	{
		name:   "中部電力",
		region: "中部",
		format: standard("chubu", "http://denki-yoho.chuden.jp/denki_yoho_content_data/juyo_cepco003.csv", 24, 76),
	},
	{
		name:   "関西電力",
		region: "関西",
		format: standard("kansai", "http://www.kepco.co.jp/yamasou/juyo1_kansai.csv", 11, 49),
	},
	{
		name:   "中国電力",
		region: "中国",
		format: standard("chugoku", "http://www.energia.co.jp/jukyuu/sys/juyo-j.csv", 8, 44),
	},
	{
		name:   "四国電力",
		region: "四国",
		format: standard("shikoku", "http://www.yonden.co.jp/denkiyoho/juyo_yonden.csv", 8, 40),
	},
	{
		name:   "九州電力",
		region: "九州",
		format: standard("kyushu", KyushuURLTemplate, 8, 44),
	},
}

// KyushuURLTemplate is the per-day Kyushu feed location.
const KyushuURLTemplate = "http://www.kyuden.co.jp/power_usages/csv/juyo-hourly-" + demand.DateToken + ".csv"

// KyushuFormat returns the Kyushu layout for the publication day containing now.
func KyushuFormat(now time.Time) demand.Format {
	p, _ := Get("kyushu")
	return p.Format(now)
}
