// Package entity classifies tracked entity names as companies or
// cryptocurrencies when the backend does not say which.
package entity

import "strings"

type Type string

const (
	Company Type = "company"
	Crypto  Type = "crypto"
)

// Valid reports whether t is one of the known entity types.
func (t Type) Valid() bool {
	return t == Company || t == Crypto
}

var cryptoKeywords = []string{
	// major cryptocurrencies
	"bitcoin", "btc", "ethereum", "eth", "litecoin", "ltc", "ripple", "xrp",
	"cardano", "ada", "polkadot", "dot", "chainlink", "link", "stellar", "xlm",
	"dogecoin", "doge", "polygon", "matic", "solana", "sol", "avalanche", "avax",
	"cosmos", "atom", "algorand", "algo", "tezos", "xtz", "monero", "xmr",
	"dash", "zcash", "zec", "binance coin", "bnb", "uniswap", "uni",

	// defi
	"aave", "compound", "comp", "maker", "mkr", "synthetix", "snx",
	"yearn.finance", "yfi", "sushiswap", "sushi", "pancakeswap", "cake",
	"curve", "crv", "1inch", "balancer", "bal",

	// layer 1 and 2
	"terra", "luna", "fantom", "ftm", "near", "harmony", "one",
	"elrond", "egld", "theta", "vechain", "vet", "iota", "miota",
	"neo", "waves", "qtum", "icon", "icx", "ontology", "ont",
	"zilliqa", "zil", "hedera", "hbar", "flow", "internet computer", "icp",

	// meme coins
	"shiba inu", "shib", "safemoon", "floki", "baby doge",

	// nft and gaming
	"enjin", "enj", "axie infinity", "axs", "the sandbox", "sand",
	"decentraland", "mana", "gala", "immutable x", "imx",

	// exchange tokens
	"binance", "ftx token", "ftt", "crypto.com coin", "cro",
	"huobi token", "ht", "kucoin shares", "kcs",

	// stablecoins
	"tether", "usdt", "usd coin", "usdc", "dai", "busd", "usdd",
	"terrausd", "ust", "frax", "fei", "tribe",

	// privacy
	"verge", "xvg", "beam", "grin", "horizen", "zen",

	// infrastructure
	"filecoin", "fil", "storj", "siacoin", "sc", "arweave", "ar",
	"helium", "hnt", "livepeer", "lpt", "render token", "rndr",

	// oracles
	"band protocol", "band", "api3",

	// cross-chain
	"thorchain", "rune", "ren", "anyswap", "any", "multichain",

	// web3
	"basic attention token", "bat", "brave", "civic", "cvc",
	"district0x", "dnt", "golem", "gnt", "status", "snt",
	"aragon", "ant", "numeraire", "nmr", "augur", "rep",
	"gnosis", "gno", "bancor", "bnt", "kyber network", "knc",
	"loopring", "lrc", "omisego", "omg", "republic protocol",

	// generic terms
	"cryptocurrency", "crypto", "coin", "token", "defi", "nft",
	"blockchain", "altcoin", "memecoin", "stablecoin", "cbdc",
	"digital currency", "virtual currency", "digital asset",
}

// DetectType guesses the type of name. A name is Crypto when, compared
// case-insensitively, it equals, contains, or is contained in a known crypto
// keyword. Short keywords make this loose: "Microsoft" matches "cro".
func DetectType(name string) Type {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Company
	}
	for _, kw := range cryptoKeywords {
		if strings.Contains(n, kw) || strings.Contains(kw, n) {
			return Crypto
		}
	}
	return Company
}

var cryptoAbbreviations = map[string]string{
	"btc":   "Bitcoin",
	"eth":   "Ethereum",
	"ltc":   "Litecoin",
	"xrp":   "Ripple",
	"ada":   "Cardano",
	"dot":   "Polkadot",
	"link":  "Chainlink",
	"xlm":   "Stellar",
	"doge":  "Dogecoin",
	"matic": "Polygon",
	"sol":   "Solana",
	"avax":  "Avalanche",
	"atom":  "Cosmos",
	"algo":  "Algorand",
	"xtz":   "Tezos",
	"xmr":   "Monero",
	"zec":   "Zcash",
	"bnb":   "Binance Coin",
	"uni":   "Uniswap",
	"mkr":   "Maker",
	"snx":   "Synthetix",
	"yfi":   "Yearn.finance",
	"cake":  "PancakeSwap",
	"luna":  "Terra",
	"ftm":   "Fantom",
	"one":   "Harmony",
	"egld":  "Elrond",
	"vet":   "VeChain",
	"icx":   "ICON",
	"ont":   "Ontology",
	"zil":   "Zilliqa",
	"enj":   "Enjin",
	"axs":   "Axie Infinity",
	"sand":  "The Sandbox",
	"mana":  "Decentraland",
	"cro":   "Crypto.com Coin",
	"usdt":  "Tether",
	"usdc":  "USD Coin",
	"dai":   "Dai",
	"busd":  "Binance USD",
	"fil":   "Filecoin",
	"hnt":   "Helium",
	"bat":   "Basic Attention Token",
	"rune":  "THORChain",
}

// FullCryptoName expands a ticker such as "BTC" to "Bitcoin". Unknown input
// is returned unchanged.
func FullCryptoName(abbr string) string {
	if name, ok := cryptoAbbreviations[strings.ToLower(strings.TrimSpace(abbr))]; ok {
		return name
	}
	return abbr
}
