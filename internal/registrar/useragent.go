package registrar

import "math/rand"

// userAgents 固定的 User-Agent 池
//
// 每次请求随机取一个，降低被目标站点按固定指纹拦截的概率。
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/121.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) Chrome/120.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Firefox/122.0",
	"Mozilla/5.0 (Linux; Android 12) Chrome/120.0.0.0 Mobile",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2) Safari/604.1",
}

// randomUserAgent 从池中随机取一个 User-Agent
func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}
