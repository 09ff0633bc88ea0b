// Package advisor holds the dialogue logic: slot extraction from the
// conversation, retrieval-grounded recommendation generation and the
// per-turn orchestrator tying them together.
package advisor

// System prompt used while the conversation is still missing slots.
const elicitSystemPrompt = "你是一个专业的医美顾问，你的任务是自然地引导用户说出他们的年龄、预算、想改善的部位和具体需求（如瘦脸、除皱），以便为他们推荐项目。"

// Prompt asking the model to pull the four slots out of a transcript.
// The model must answer with bare JSON and use null for anything the
// user never said.
const infoExtractionPrompt = `你是一个信息提取助手。请从下面的对话中提取用户的年龄(age)、预算(budget)、想改善的部位(area)和具体需求关键词(keywords)。
严格按照JSON格式返回，不要输出任何其他内容。如果某项信息用户没有提到，对应的值设为null。
age是整数，budget和area是字符串，keywords是字符串数组。

对话内容:
%s

JSON:`

// Prompt asking the model to pick one product from retrieved context.
// The answer must be bare JSON, either a recommendation or an error
// object.
const recommendationPrompt = `你是一个专业的医美顾问。根据用户信息和下面提供的产品资料，为用户推荐一个最合适的产品。

用户信息:
%s

产品资料:
%s

请严格按照JSON格式返回推荐结果，不要输出任何其他内容。格式为:
{"name": "产品名称", "price": 价格数字, "reason": "推荐理由"}
如果产品资料中没有合适的产品，返回:
{"error": "原因说明"}

JSON:`

// User-facing degradation messages.
const (
	msgNoProduct         = "抱歉，根据您的需求，暂时没有找到合适的产品。"
	msgGenerationFailure = "推荐内容生成失败，请稍后再试。"
	msgChatFallback      = "抱歉，AI服务当前似乎有些问题，请稍后再试。"
)
