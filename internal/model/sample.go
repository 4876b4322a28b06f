package model

// 内置示例手顺：冷却水循环泵启动
var sampleProcedure = Procedure{
	ID:    "procedure-001",
	Title: "冷却水循環ポンプ始動手順",
	Steps: []Step{
		{
			ID:             "step-1",
			Title:          "吸込バルブの確認",
			Description:    "冷却水ポンプ(P-101)の吸込バルブ(V-101)が「全開」であることを確認してください。",
			DangerPoints:   []string{"バルブの固着による腰痛", "配管からの液漏れ"},
			ExpectedObject: "Valve V-101 Open",
		},
		{
			ID:             "step-2",
			Title:          "吐出バルブの閉止確認",
			Description:    "ポンプ吐出バルブ(V-102)が「全閉」であることを確認してください。",
			DangerPoints:   []string{"操作間違いによる逆流"},
			ExpectedObject: "Valve V-102 Closed",
		},
		{
			ID:             "step-3",
			Title:          "ポンプ起動",
			Description:    "現場操作盤の起動ボタン(Green)を押してポンプを起動してください。",
			DangerPoints:   []string{"回転体への巻き込まれ", "感電"},
			ExpectedObject: "Pump Start Button",
		},
		{
			ID:             "step-4",
			Title:          "圧力確認と吐出バルブ開放",
			Description:    "吐出圧力が規定値(0.5MPa)に上がったことを確認し、ゆっくりと吐出バルブ(V-102)を開放してください。",
			DangerPoints:   []string{"急激な圧力変動によるウォーターハンマー"},
			ExpectedObject: "Pressure Gauge and Valve V-102",
		},
	},
}

// SampleProcedure 返回内置示例手顺的副本
func SampleProcedure() *Procedure {
	return sampleProcedure.Clone()
}
