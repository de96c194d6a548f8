// Copyright 2025-2026 llmbridge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package rag 提供向量存储（EmbeddingStore）及统一的相关性评分。

各后端报告的相似度口径不同，本包把它们统一成 [0,1] 区间的分数，
越大越相关，使 FindRelevant 的 minScore 在不同后端间含义一致。

# 核心接口/类型

  - EmbeddingStore — Add / AddWithID / AddWithSegment / AddAll /
    AddAllWithSegments / FindRelevant
  - InMemoryStore — 进程内实现，余弦相似度
  - ChromaStore — Chroma REST API，余弦距离转分数，支持 where 过滤
  - WeaviateStore — Weaviate REST + GraphQL，certainty 即分数

# 评分

  - ScoreFromCosineDistance: 1 - distance，截断到 [0,1]
  - ScoreFromCertainty: certainty 原样返回
  - ScoreFromCosineSimilarity: (1 + similarity) / 2
  - RankMatches: 过滤 minScore、按分数降序、截断到 maxResults

# 并发

远程存储在首次使用时惰性创建集合/类；并发的首次调用只触发一次创建，
失败不会被缓存，下一次调用会重试。
*/
package rag
