package indicators

// OHLCV names the canonical price/volume columns an indicator reads.
type OHLCV struct {
	Date   string `json:"date" mapstructure:"date"`
	Open   string `json:"open" mapstructure:"open"`
	High   string `json:"high" mapstructure:"high"`
	Low    string `json:"low" mapstructure:"low"`
	Close  string `json:"close" mapstructure:"close"`
	Volume string `json:"volume" mapstructure:"volume"`
}

// DefaultOHLCV returns the canonical lower-case column names.
func DefaultOHLCV() OHLCV {
	return OHLCV{Date: "date", Open: "open", High: "high", Low: "low", Close: "close", Volume: "volume"}
}

type RSIParams struct {
	Window int `json:"window" mapstructure:"window"`
}

func DefaultRSIParams() RSIParams { return RSIParams{Window: 14} }

type MACDParams struct {
	Fast   int `json:"fast" mapstructure:"fast"`
	Slow   int `json:"slow" mapstructure:"slow"`
	Signal int `json:"signal" mapstructure:"signal"`
}

func DefaultMACDParams() MACDParams { return MACDParams{Fast: 12, Slow: 26, Signal: 9} }

type StochasticParams struct {
	K       int `json:"k" mapstructure:"k"`
	Slowing int `json:"slowing" mapstructure:"slowing"`
	D       int `json:"d" mapstructure:"d"`
}

func DefaultStochasticParams() StochasticParams { return StochasticParams{K: 14, Slowing: 3, D: 3} }

type BollingerParams struct {
	Period int     `json:"period" mapstructure:"period"`
	NumStd float64 `json:"num_std" mapstructure:"num_std"`
}

func DefaultBollingerParams() BollingerParams { return BollingerParams{Period: 20, NumStd: 2.0} }

// KeltnerParams uses Period for both the EMA midline and the ATR.
type KeltnerParams struct {
	Period     int     `json:"period" mapstructure:"period"`
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
}

func DefaultKeltnerParams() KeltnerParams { return KeltnerParams{Period: 20, Multiplier: 2.0} }

// VWAPParams controls session handling for VWAP. When ResetDaily is set,
// the cumulative sums restart whenever the date part of SessionColumn changes.
type VWAPParams struct {
	SessionColumn string `json:"session_column" mapstructure:"session_column"`
	ResetDaily    bool   `json:"reset_daily" mapstructure:"reset_daily"`
}

func DefaultVWAPParams() VWAPParams { return VWAPParams{SessionColumn: "date", ResetDaily: true} }

type VWAPBandParams struct {
	Window      int       `json:"window" mapstructure:"window"`
	Multipliers []float64 `json:"multipliers" mapstructure:"multipliers"`
}

func DefaultVWAPBandParams() VWAPBandParams {
	return VWAPBandParams{Window: 20, Multipliers: []float64{1.0, 2.0}}
}

type IchimokuParams struct {
	Tenkan       int `json:"tenkan" mapstructure:"tenkan"`
	Kijun        int `json:"kijun" mapstructure:"kijun"`
	SenkouB      int `json:"senkou_b" mapstructure:"senkou_b"`
	Displacement int `json:"displacement" mapstructure:"displacement"`
}

func DefaultIchimokuParams() IchimokuParams {
	return IchimokuParams{Tenkan: 9, Kijun: 26, SenkouB: 52, Displacement: 26}
}

// PSARParams holds the acceleration factor step and its ceiling.
type PSARParams struct {
	Step float64 `json:"step" mapstructure:"step"`
	Max  float64 `json:"max" mapstructure:"max"`
}

func DefaultPSARParams() PSARParams { return PSARParams{Step: 0.02, Max: 0.2} }

// OscillatorParams configures AddOscillatorIndicators.
type OscillatorParams struct {
	RSI        RSIParams        `json:"rsi" mapstructure:"rsi"`
	MACD       MACDParams       `json:"macd" mapstructure:"macd"`
	Stochastic StochasticParams `json:"stochastic" mapstructure:"stochastic"`
	WilliamsR  int              `json:"williams_r" mapstructure:"williams_r"`
}

func DefaultOscillatorParams() OscillatorParams {
	return OscillatorParams{
		RSI:        DefaultRSIParams(),
		MACD:       DefaultMACDParams(),
		Stochastic: DefaultStochasticParams(),
		WilliamsR:  14,
	}
}

// VolumeParams configures AddVolumeIndicators.
type VolumeParams struct {
	CMFWindow int        `json:"cmf_window" mapstructure:"cmf_window"`
	MFIWindow int        `json:"mfi_window" mapstructure:"mfi_window"`
	VWAP      VWAPParams `json:"vwap" mapstructure:"vwap"`
}

func DefaultVolumeParams() VolumeParams {
	return VolumeParams{CMFWindow: 20, MFIWindow: 14, VWAP: DefaultVWAPParams()}
}

// Params is the union of every indicator's configuration, used by the
// registry and the service config.
type Params struct {
	Period      int              `json:"period" mapstructure:"period"`
	Fast        int              `json:"fast" mapstructure:"fast"`
	Slow        int              `json:"slow" mapstructure:"slow"`
	Signal      int              `json:"signal" mapstructure:"signal"`
	NumStd      float64          `json:"num_std" mapstructure:"num_std"`
	Multiplier  float64          `json:"multiplier" mapstructure:"multiplier"`
	Stochastic  StochasticParams `json:"stochastic" mapstructure:"stochastic"`
	Ichimoku    IchimokuParams   `json:"ichimoku" mapstructure:"ichimoku"`
	PSAR        PSARParams       `json:"psar" mapstructure:"psar"`
	VWAP        VWAPParams       `json:"vwap" mapstructure:"vwap"`
	Multipliers []float64        `json:"multipliers" mapstructure:"multipliers"`
	Anchor      int              `json:"anchor" mapstructure:"anchor"`
}
