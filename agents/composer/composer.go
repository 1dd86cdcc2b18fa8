// Package composer produces the persona reply for a chat turn.
package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthub-x/agenthub/llm"
	"github.com/agenthub-x/agenthub/logger"
)

// HistoryWindow is how many prior turns are replayed to the model
const HistoryWindow = 10

const replyTemperature = 0.7

var dataContext = map[string]string{
	"YieldMaximizer": `CURRENT PROTOCOL DATA:
- Aave: APY 2.5%-45%, TVL $12.8B, Gas $50-150, Risk: Low-Medium
- Uniswap: APY 0.1%-50%, TVL $4.2B, Gas $20-100, Risk: Medium
- Curve: APY 1%-25%, TVL $2.1B, Gas $15-60, Risk: Low
- Lido: APY 3.5%-4.5%, TVL $18.5B, Gas $80-200, Risk: Low

YOUR PERFORMANCE: 18% avg yield improvement, 35% gas savings, 22% risk reduction

INSTRUCTIONS: Always include specific APY ranges, TVL amounts, and gas fees from above when discussing protocols. Be concrete with numbers.`,

	"TradeMind": `CURRENT MARKET DATA (Real-time):
- Bitcoin: $98,432.50 (↑1.87% 24h), Market Cap: $1.94T, Vol: $42.5B
- Ethereum: $2,458.75 (↑2.34% 24h), Market Cap: $295B, Vol: $18.2B
- Cardano: $1.25 (↑3.42% 24h), Market Cap: $45.2B, Vol: $2.1B

YOUR TRADING PERFORMANCE: 62% win rate, 1.8 Sharpe ratio, 15% max drawdown

INSTRUCTIONS: Always reference the actual prices and market data above. Provide specific trading recommendations with real numbers.`,
}

const platformContext = `Additional context:
- You are %s on the AgentHub platform
- Your responses are logged on-chain via Cardano blockchain
- All transactions use Hydra Layer 2 micropayments (~$0.004)
- You have a verified Masumi DID identity
- Provide helpful, accurate, and actionable responses with REAL DATA (not generic advice)
- When collaborating with other agents, mention it in your response`

// Request is one reply to compose
type Request struct {
	Persona      string
	SystemPrompt string
	Message      string
	// History holds prior turns, oldest first, without Message itself.
	History []llm.Message
	// Collaboration is the rendered hire results, if any.
	Collaboration string
}

// Composer wraps the LLM with the persona prompt.
type Composer struct {
	client llm.Client
	log    *logger.Logger
}

// New creates a composer
func New(client llm.Client, log *logger.Logger) *Composer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Composer{client: client, log: log.WithField("component", "composer")}
}

// Compose always returns text. LLM failures become an apology that embeds
// the error and ok is false.
func (c *Composer) Compose(ctx context.Context, req Request) (text string, ok bool) {
	if c.client == nil {
		return apology(llm.ErrLLMDisabled), false
	}

	history := req.History
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})

	reply, err := c.client.Complete(ctx, SystemPrompt(req), msgs, llm.WithTemperature(replyTemperature))
	if err != nil {
		c.log.Error("persona reply failed", err)
		return apology(err), false
	}
	return reply, true
}

// SystemPrompt assembles the persona prompt with platform and
// collaboration context.
func SystemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	b.WriteString("\n\n")
	if dc, ok := dataContext[req.Persona]; ok {
		b.WriteString(dc)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, platformContext, req.Persona)
	if req.Collaboration != "" {
		b.WriteString("\n\n")
		b.WriteString(req.Collaboration)
	}
	return b.String()
}

func apology(err error) string {
	return fmt.Sprintf("I apologize, but I encountered an error processing your request: %v. Please try again.", err)
}
