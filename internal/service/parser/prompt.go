package parser

import "fmt"

const outputFormat = `【出力フォーマット】
{
  "title": string, // 手順書のタイトル
  "steps": [
    {
      "id": string, // "step-1", "step-2"...
      "title": string, // 各ステップのタイトル
      "description": string, // 作業内容の詳細説明
      "dangerPoints": string[], // 危険予知ポイント（明記されていない場合は作業内容から推測）
      "expectedObject": string // このステップで確認すべき対象物（例: "Valve A", "Display Panel"）
    }
  ]
}`

const outputRules = `危険ポイント(dangerPoints)が明記されていない場合は、作業内容から想定される一般的な危険（「感電」「高温」「挟まれ」など）を推測して追加してください。
JSONのみを返してください。Markdownのコードブロックは不要です。`

const imagePrompt = `あなたは製造現場の安全管理者です。
アップロードされた作業手順書の画像を解析し、以下のJSON形式に変換してください。

` + outputFormat + `

画像内の文字を正確に読み取り、作業手順を構造化してください。
` + outputRules

// buildTextPrompt 文本手顺书的提示词，原文嵌入到【入力テキスト】中
func buildTextPrompt(text string) string {
	return fmt.Sprintf(`あなたは製造現場の安全管理者です。
以下の作業手順書のテキストを解析し、以下のJSON形式に変換してください。

【入力テキスト】
%s

%s

テキスト内の作業手順を正確に読み取り、構造化してください。
%s`, text, outputFormat, outputRules)
}
