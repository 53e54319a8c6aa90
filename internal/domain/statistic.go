package domain

// Statistic names a column of the derived table. The names match the
// dashboard's expectations and must not change.
type Statistic string

const (
	TotalCases              Statistic = "Total Cases"
	TotalDeaths             Statistic = "Total Deaths"
	CasesPerMillion         Statistic = "Cases per Million"
	DeathsPerMillion        Statistic = "Deaths per Million"
	DailyCases              Statistic = "Daily Cases"
	DailyDeaths             Statistic = "Daily Deaths"
	DailyCasesMA            Statistic = "Daily Cases 7 Day MA"
	DailyDeathsMA           Statistic = "Daily Deaths 7 Day MA"
	DailyCasesPerMillionMA  Statistic = "Daily Cases per Million 7 Day MA"
	DailyDeathsPerMillionMA Statistic = "Daily Deaths per Million 7 Day MA"
)

// PivotStatistics lists the statistics carried into the wide tables.
var PivotStatistics = []Statistic{
	CasesPerMillion, DeathsPerMillion,
	DailyCasesPerMillionMA, DailyDeathsPerMillionMA,
	TotalCases, TotalDeaths,
	DailyCases, DailyDeaths,
	DailyCasesMA, DailyDeathsMA,
}

// MovingAverageWindow is the number of trailing samples in a moving average.
const MovingAverageWindow = 7

const perMillion = 1e6

// metric describes one base count and the statistics derived from it.
type metric struct {
	total     Statistic
	perCapita Statistic
	daily     Statistic
	dailyMA   Statistic
	perCapMA  Statistic
	count     func(Totals) int64
}

var metrics = []metric{
	{
		total:     TotalCases,
		perCapita: CasesPerMillion,
		daily:     DailyCases,
		dailyMA:   DailyCasesMA,
		perCapMA:  DailyCasesPerMillionMA,
		count:     func(t Totals) int64 { return t.Cases },
	},
	{
		total:     TotalDeaths,
		perCapita: DeathsPerMillion,
		daily:     DailyDeaths,
		dailyMA:   DailyDeathsMA,
		perCapMA:  DailyDeathsPerMillionMA,
		count:     func(t Totals) int64 { return t.Deaths },
	},
}
