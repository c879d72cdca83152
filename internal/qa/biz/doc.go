// Package biz 提供简历问答服务的业务逻辑层。
//
// 问答流程是一个固定的四节点有向无环图：
//   - Rewrite: 结合对话历史把问题改写为独立问题
//   - Passthrough: 保留原始请求，供回答节点使用
//   - Retrieve: 用独立问题检索简历片段并合并为上下文
//   - Answer: 基于上下文、原始问题和对话历史生成回答
//
// 另外 Indexer 负责离线索引（分节、分块、嵌入、写入向量库），
// Registry 记录已索引文件的内容指纹。
package biz
