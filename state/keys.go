package state

var (
	positionPrefix   = []byte("stake/position/")
	positionIndexKey = []byte("stake/position/index")
	totalStakedKey   = []byte("stake/totalStaked")
	rewardPoolKey    = []byte("stake/rewardPool")
	tokenPrefix      = []byte("token/")
)

func positionKey(addr []byte) []byte {
	key := append([]byte(nil), positionPrefix...)
	return append(key, addr...)
}

func tokenBalanceKey(symbol string, addr []byte) []byte {
	key := append([]byte(nil), tokenPrefix...)
	key = append(key, symbol...)
	key = append(key, "/balance/"...)
	return append(key, addr...)
}

func tokenSupplyKey(symbol string) []byte {
	key := append([]byte(nil), tokenPrefix...)
	key = append(key, symbol...)
	return append(key, "/supply"...)
}
